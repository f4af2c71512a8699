package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	v := NewVerifier("test-secret")
	token, err := v.Sign(42, []string{"chat.reply.any"}, time.Minute)
	require.NoError(t, err)

	principal, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), principal.AgentID)
	assert.True(t, principal.Has("chat.reply.any"))
	assert.False(t, principal.Has("chat.reply.assigned"))
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewVerifier("secret-a").Sign(1, nil, time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	t.Parallel()

	v := NewVerifier("test-secret")
	token, err := v.Sign(1, nil, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier("test-secret").Verify("not.a.token")
	assert.Error(t, err)
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-console/internal/auth"
	"crm-console/internal/config"
	"crm-console/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestPingbackTokenAuth(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{PingbackAuthToken: "pb-secret"}
	guarded := PingbackTokenAuth(cfg)(okHandler())

	tests := []struct {
		name    string
		setup   func(*http.Request)
		useURL  string
		expect  int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer pb-secret") }, "/pingback/call", 200},
		{"custom header", func(r *http.Request) { r.Header.Set("X-Pingback-Token", "pb-secret") }, "/pingback/call", 200},
		{"query param", nil, "/pingback/call?token=pb-secret", 200},
		{"missing token", nil, "/pingback/call", 403},
		{"wrong token", nil, "/pingback/call?token=nope", 403},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.useURL, nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)
			assert.Equal(t, tc.expect, rec.Code)
		})
	}
}

func TestPingbackTokenAuthDisabled(t *testing.T) {
	t.Parallel()

	// No configured token means the endpoint is open; some providers
	// cannot carry credentials at all.
	guarded := PingbackTokenAuth(&config.Config{})(okHandler())
	req := httptest.NewRequest("GET", "/pingback/call", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{APIKeys: []config.APIKey{{Name: "console", Key: "k1"}}}
	guarded := APIKeyAuth(cfg)(okHandler())

	req := httptest.NewRequest("GET", "/api/calls", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)

	req = httptest.NewRequest("GET", "/api/calls", nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 401, rec.Code)

	req = httptest.NewRequest("GET", "/api/calls", nil)
	req.Header.Set("X-API-Key", "bogus")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 403, rec.Code)
}

func TestStreamAuth(t *testing.T) {
	t.Parallel()

	verifier := auth.NewVerifier("stream-secret")
	token, err := verifier.Sign(7, []string{models.PermReplyAny}, time.Minute)
	require.NoError(t, err)

	var captured *auth.Principal
	guarded := StreamAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/stream/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, int64(7), captured.AgentID)
	assert.True(t, captured.Has(models.PermReplyAny))

	// EventSource cannot set headers; the token may ride the query string.
	req = httptest.NewRequest("GET", "/stream/events?access_token="+token, nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)

	req = httptest.NewRequest("GET", "/stream/events", nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 401, rec.Code)

	req = httptest.NewRequest("GET", "/stream/events?access_token=garbage", nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, 401, rec.Code)
}

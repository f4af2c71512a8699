package httpapi

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenRequestJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/pingback/call?source=trunk7",
		strings.NewReader(`{"CALL_ID":"C1","duration":42,"active":true,"nested":{"a":1},"empty":null}`))
	req.Header.Set("Content-Type", "application/json")

	fields, err := flattenRequest(req)
	require.NoError(t, err)

	assert.Equal(t, "C1", fields["CALL_ID"])
	assert.Equal(t, "42", fields["duration"])
	assert.Equal(t, "true", fields["active"])
	assert.JSONEq(t, `{"a":1}`, fields["nested"])
	assert.Equal(t, "", fields["empty"])
	// Query parameters ride along for providers that split fields.
	assert.Equal(t, "trunk7", fields["source"])
}

func TestFlattenRequestBodyWinsOverQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/pingback/call?CALL_ID=from-query",
		strings.NewReader(`{"CALL_ID":"from-body"}`))
	req.Header.Set("Content-Type", "application/json")

	fields, err := flattenRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "from-body", fields["CALL_ID"])
}

func TestFlattenRequestEmptyBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/pingback/call?CALL_ID=C9", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")

	fields, err := flattenRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "C9", fields["CALL_ID"])
}

func TestParseMessagingWebhookMixedBatch(t *testing.T) {
	t.Parallel()

	payload := `{
	  "entry": [{
	    "changes": [{
	      "value": {
	        "metadata": {"display_phone_number": "919123456789"},
	        "messages": [
	          {"id": "m1", "from": "919876543210", "type": "text", "text": {"body": "first"}},
	          {"id": "m2", "from": "919876543210", "type": "image", "image": {"link": "https://cdn/x.jpg", "caption": "pic"}}
	        ],
	        "statuses": [
	          {"id": "out1", "status": "read", "recipient_id": "919876543210"}
	        ]
	      }
	    }]
	  }]
	}`

	batch, err := parseMessagingWebhook([]byte(payload))
	require.NoError(t, err)

	require.Len(t, batch.messages, 2)
	assert.Equal(t, "first", batch.messages[0]["body"])
	assert.Equal(t, "919123456789", batch.messages[0]["to"])
	assert.Equal(t, "https://cdn/x.jpg", batch.messages[1]["media_url"])
	assert.Equal(t, "pic", batch.messages[1]["caption"])

	require.Len(t, batch.statuses, 1)
	assert.Equal(t, "read", batch.statuses[0]["status"])
}

func TestParseMessagingWebhookRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := parseMessagingWebhook([]byte("definitely not json"))
	assert.Error(t, err)
}

package httpapi

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-console/internal/event"
	"crm-console/internal/hub"
)

func TestCallPingbackJSON(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	pub := &recordPublisher{}
	handler := CallPingbackHandler(st, pub)

	req := httptest.NewRequest("POST", "/pingback/call",
		strings.NewReader(`{"CALL_ID":"C1","aparty":"9876543210","to":"9123456789","type":"CONNECTED"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, 200, rec.Code)
	require.Len(t, st.calls, 1)
	assert.Equal(t, "C1", st.calls[0].CallID)
	assert.Equal(t, event.CallAnswered, st.calls[0].EventType)

	published := pub.published()
	require.Len(t, published, 1)
	env, ok := published[0].(event.CallEnvelope)
	require.True(t, ok)
	assert.Equal(t, "answered", env.Type)
	assert.Equal(t, "C1", env.Data["CALL_ID"])
}

func TestCallPingbackForm(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	pub := &recordPublisher{}
	handler := CallPingbackHandler(st, pub)

	form := url.Values{}
	form.Set("call_id", "C2")
	form.Set("caller", "9876543210")
	form.Set("callee", "9123456789")
	form.Set("event", "hangup")

	req := httptest.NewRequest("POST", "/pingback/call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, 200, rec.Code)
	require.Len(t, st.calls, 1)
	assert.Equal(t, event.CallEnded, st.calls[0].EventType)
}

func TestCallPingbackQueryParams(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	pub := &recordPublisher{}
	handler := CallPingbackHandler(st, pub)

	req := httptest.NewRequest("GET", "/pingback/call?CALL_ID=C3&aparty=9876543210&bparty=9123456789&type=INCOMING_CALL", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, 200, rec.Code)
	require.Len(t, st.calls, 1)
	assert.Equal(t, event.CallIncoming, st.calls[0].EventType)
}

func TestCallPingbackUnparseableBody(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	pub := &recordPublisher{}
	handler := CallPingbackHandler(st, pub)

	req := httptest.NewRequest("POST", "/pingback/call", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, 500, rec.Code)
	assert.Empty(t, st.calls)
	assert.Empty(t, pub.published())
}

func TestCallPingbackPersistFailureStillBroadcasts(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	st.insertErr = assert.AnError
	pub := &recordPublisher{}
	handler := CallPingbackHandler(st, pub)

	req := httptest.NewRequest("GET", "/pingback/call?CALL_ID=C4&type=answered", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	// Provider still gets its acknowledgment and operators their event.
	assert.Equal(t, 200, rec.Code)
	assert.Len(t, pub.published(), 1)
}

func TestClickToCallDefaultsOutgoing(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	pub := &recordPublisher{}
	handler := ClickToCallPingbackHandler(st, pub)

	req := httptest.NewRequest("GET", "/pingback/ctc?call_id=CTC1&caller=9876543210&agent_number=1001", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, 200, rec.Code)
	require.Len(t, st.calls, 1)
	assert.Equal(t, event.CallOutgoing, st.calls[0].EventType)
	assert.Equal(t, "1001", st.calls[0].AgentNumber)
}

// Call pingback through a live hub: a connected observer sees one frame
// with the answered classification and the original field names intact.
func TestCallPingbackEndToEnd(t *testing.T) {
	t.Parallel()

	h := hub.New(8, time.Hour)
	defer h.Close()

	observer := &jsonSink{}
	h.Attach(observer)

	st := newFakeStore()
	handler := CallPingbackHandler(st, h)

	req := httptest.NewRequest("POST", "/pingback/call",
		strings.NewReader(`{"CALL_ID":"C1","aparty":"9876543210","to":"9123456789","type":"CONNECTED"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)
	assert.Equal(t, 200, rec.Code)

	require.Eventually(t, func() bool { return observer.count() == 1 }, time.Second, 5*time.Millisecond)

	frame := observer.frame(0)
	assert.Equal(t, "answered", frame["type"])
	data, ok := frame["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "C1", data["CALL_ID"])
}

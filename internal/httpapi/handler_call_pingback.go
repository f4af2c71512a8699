package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"crm-console/internal/event"
	"crm-console/internal/metrics"
)

// EventStore is the persistence gateway as seen from the ingestion
// endpoints. All calls against it are best-effort: a storage hiccup must
// not cost live visibility or the provider's acknowledgment.
type EventStore interface {
	InsertCallEvent(ctx context.Context, ev event.CallEvent) error
	InsertMessage(ctx context.Context, chatID string, msg event.InboundMessage) error
	UpdateMessageStatus(ctx context.Context, messageID, status string) error
}

// Assigner links an unclaimed chat to an agent. Best-effort as well.
type Assigner interface {
	EnsureAssigned(ctx context.Context, chatID string) error
}

// Publisher fans an event out to every attached stream connection.
type Publisher interface {
	Publish(v any)
}

// CallPingbackHandler ingests voice-provider call notifications. The
// provider always gets a success acknowledgment unless its payload could
// not be parsed at all; it retries on its own schedule.
func CallPingbackHandler(st EventStore, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := flattenRequest(r)
		if err != nil {
			metrics.EventsTotal.WithLabelValues("call", "unparseable").Inc()
			http.Error(w, "invalid payload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		ev := event.NormalizeCall(fields)
		ingestCallEvent(r.Context(), "call", ev, st, pub)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ClickToCallPingbackHandler ingests click-to-call notifications, which
// default to the outgoing bucket when the provider omits an event type.
func ClickToCallPingbackHandler(st EventStore, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := flattenRequest(r)
		if err != nil {
			metrics.EventsTotal.WithLabelValues("ctc", "unparseable").Inc()
			http.Error(w, "invalid payload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		ev := event.NormalizeClickToCall(fields)
		ingestCallEvent(r.Context(), "ctc", ev, st, pub)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ingestCallEvent runs the shared persist-then-broadcast pipeline.
// Validation is advisory; persistence failures are logged and swallowed so
// the event still reaches connected operators.
func ingestCallEvent(ctx context.Context, source string, ev event.CallEvent, st EventStore, pub Publisher) {
	if ok, errs := event.Validate(ev); !ok {
		slog.Warn("call pingback failed validation",
			"source", source, "call_id", ev.CallID, "errors", errs)
	}

	if err := st.InsertCallEvent(ctx, ev); err != nil {
		slog.Error("persist call event", "source", source, "call_id", ev.CallID, "error", err)
	}

	pub.Publish(event.NewCallEnvelope(ev))
	metrics.EventsTotal.WithLabelValues(source, "ok").Inc()
}

package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"crm-console/internal/config"
	"crm-console/internal/event"
	"crm-console/internal/metrics"
)

// MessagingVerifyHandler answers the webhook registration handshake: the
// provider sends a challenge and expects it echoed verbatim. No event data
// is processed here.
func MessagingVerifyHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode := q.Get("hub.mode")
		token := q.Get("hub.verify_token")
		challenge := q.Get("hub.challenge")

		if mode != "subscribe" || token != cfg.WebhookVerifyToken {
			http.Error(w, "verification failed", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// MessagingWebhookHandler ingests inbound messages and delivery status
// updates. Messages flow through suppression, best-effort persistence,
// best-effort auto-assignment, then broadcast. The provider always gets a
// success acknowledgment for a parseable body.
func MessagingWebhookHandler(st EventStore, asg Assigner, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "invalid body", http.StatusInternalServerError)
			return
		}
		defer r.Body.Close()

		batch, err := parseMessagingWebhook(body)
		if err != nil {
			metrics.EventsTotal.WithLabelValues("messaging", "unparseable").Inc()
			http.Error(w, "invalid payload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		ctx := r.Context()

		for _, raw := range batch.messages {
			msg := event.NormalizeMessage(raw)
			if msg.Suppressed() {
				slog.Info("suppressed template-header duplicate", "message_id", msg.MessageID)
				metrics.SuppressedMessages.Inc()
				continue
			}

			chatID := msg.From
			if msg.Direction == event.DirectionOut {
				chatID = msg.To
			}

			if err := st.InsertMessage(ctx, chatID, msg); err != nil {
				slog.Error("persist message", "message_id", msg.MessageID, "error", err)
			}

			// Only an inbound message claims an agent; echoes of our own
			// outbound traffic must not trigger assignment.
			if msg.Direction == event.DirectionIn {
				if err := asg.EnsureAssigned(ctx, chatID); err != nil {
					slog.Error("auto-assign chat", "chat_id", chatID, "error", err)
				}
			}

			pub.Publish(event.NewMessageEnvelope(msg))
			metrics.EventsTotal.WithLabelValues("messaging", "ok").Inc()
		}

		for _, raw := range batch.statuses {
			upd := event.DeliveryUpdate{
				MessageID: raw["id"],
				Status:    raw["status"],
				Recipient: raw["recipient_id"],
				Timestamp: raw["timestamp"],
			}
			if upd.MessageID == "" || upd.Status == "" {
				slog.Warn("status update missing id or status", "fields", raw)
				continue
			}

			if err := st.UpdateMessageStatus(ctx, upd.MessageID, upd.Status); err != nil {
				slog.Error("persist delivery status", "message_id", upd.MessageID, "error", err)
			}

			pub.Publish(event.NewDeliveryEnvelope(upd))
			metrics.EventsTotal.WithLabelValues("messaging_status", "ok").Inc()
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

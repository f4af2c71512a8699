package event

import (
	"strings"
	"time"
)

// Stream envelope types for messaging events.
const (
	EnvelopeNewMessage     = "new_message"
	EnvelopeDeliveryUpdate = "delivery_update"
)

// CallEnvelope is the frame shape broadcast for voice events. Data carries
// the raw provider payload so the console can dispatch on original field
// names; Type carries the canonical classification.
type CallEnvelope struct {
	Type      string            `json:"type"`
	Timestamp string            `json:"timestamp"`
	Data      map[string]string `json:"data"`
}

func NewCallEnvelope(ev CallEvent) CallEnvelope {
	return CallEnvelope{
		Type:      strings.ToLower(string(ev.EventType)),
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
		Data:      ev.Raw,
	}
}

// MessageEnvelope is the frame shape broadcast for messaging events.
type MessageEnvelope struct {
	Type    string `json:"type"`
	Message any    `json:"message"`
}

func NewMessageEnvelope(msg InboundMessage) MessageEnvelope {
	return MessageEnvelope{Type: EnvelopeNewMessage, Message: msg}
}

// DeliveryUpdate reports a provider-side status change for an outbound
// message (sent, delivered, read, failed).
type DeliveryUpdate struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Recipient string `json:"recipient,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func NewDeliveryEnvelope(upd DeliveryUpdate) MessageEnvelope {
	return MessageEnvelope{Type: EnvelopeDeliveryUpdate, Message: upd}
}

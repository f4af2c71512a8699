package models

import "time"

// Permission grants consumed by the assignment engine and the stream auth
// layer. Grant administration happens in the console backend, not here.
const (
	PermReplyAny      = "chat.reply.any"
	PermReplyAssigned = "chat.reply.assigned"
)

type Agent struct {
	ID             int64      `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Number         *string    `db:"number" json:"number,omitempty"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	Permissions    []string   `db:"permissions" json:"permissions"`
	LastAssignedAt *time.Time `db:"last_assigned_at" json:"last_assigned_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type AssignmentStatus string

const (
	AssignmentActive AssignmentStatus = "active"
	AssignmentClosed AssignmentStatus = "closed"
)

type ChatAssignment struct {
	ID        int64            `db:"id" json:"id"`
	ChatID    string           `db:"chat_id" json:"chat_id"`
	AgentID   int64            `db:"agent_id" json:"agent_id"`
	Status    AssignmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

type CallEventRow struct {
	ID           int64     `db:"id" json:"id"`
	CallID       string    `db:"call_id" json:"call_id"`
	CallerNumber *string   `db:"caller_number" json:"caller_number,omitempty"`
	CalleeNumber *string   `db:"callee_number" json:"callee_number,omitempty"`
	EventType    string    `db:"event_type" json:"event_type"`
	EventTime    time.Time `db:"event_time" json:"event_time"`
	DTMFDigits   *string   `db:"dtmf_digits" json:"dtmf_digits,omitempty"`
	AgentNumber  *string   `db:"agent_number" json:"agent_number,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type MessageRow struct {
	ID            int64     `db:"id" json:"id"`
	MessageID     string    `db:"message_id" json:"message_id"`
	ChatID        string    `db:"chat_id" json:"chat_id"`
	FromNumber    string    `db:"from_number" json:"from_number"`
	ToNumber      string    `db:"to_number" json:"to_number"`
	Direction     string    `db:"direction" json:"direction"`
	ContentType   string    `db:"content_type" json:"content_type"`
	Content       string    `db:"content" json:"content"`
	MediaURL      *string   `db:"media_url" json:"media_url,omitempty"`
	MediaFilename *string   `db:"media_filename" json:"media_filename,omitempty"`
	MediaCaption  *string   `db:"media_caption" json:"media_caption,omitempty"`
	Status        *string   `db:"status" json:"status,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

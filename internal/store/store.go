package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"crm-console/internal/event"
	"crm-console/internal/models"
)

// Querier is the minimal interface needed from a pgx pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrSuppressed is returned when a message is dropped by the
// template-header duplicate rule. Not a failure.
var ErrSuppressed = errors.New("message suppressed")

// Store is the persistence gateway for normalized events and messages.
type Store struct {
	db Querier
}

func New(db Querier) *Store {
	return &Store{db: db}
}

// InsertCallEvent appends one pingback notification to the call event log.
// Events with the same call id are separate notifications and are never
// merged, so there is no conflict handling here.
func (s *Store) InsertCallEvent(ctx context.Context, ev event.CallEvent) error {
	raw, err := json.Marshal(ev.Raw)
	if err != nil {
		return fmt.Errorf("marshal raw payload: %w", err)
	}

	_, err = s.db.Exec(ctx, `
        INSERT INTO crm.call_events (
            call_id, caller_number, callee_number,
            event_type, event_time, dtmf_digits, agent_number, raw_payload
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `,
		ev.CallID,
		nullableString(ev.CallerNumber),
		nullableString(ev.CalleeNumber),
		string(ev.EventType),
		ev.Timestamp,
		nullableString(ev.DTMFDigits),
		nullableString(ev.AgentNumber),
		raw,
	)
	if err != nil {
		return fmt.Errorf("insert call event: %w", err)
	}

	slog.Info("inserted call event", "call_id", ev.CallID, "event_type", ev.EventType)
	return nil
}

// InsertMessage persists one inbound message, dropping suppressed ones and
// deduplicating on the provider message id.
func (s *Store) InsertMessage(ctx context.Context, chatID string, msg event.InboundMessage) error {
	if msg.Suppressed() {
		return ErrSuppressed
	}

	cmdTag, err := s.db.Exec(ctx, `
        INSERT INTO crm.messages (
            message_id, chat_id, from_number, to_number,
            direction, content_type, content,
            media_url, media_filename, media_caption
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (message_id) DO NOTHING
    `,
		msg.MessageID,
		chatID,
		msg.From,
		msg.To,
		string(msg.Direction),
		string(msg.ContentType),
		msg.Content,
		nullableString(msg.MediaURL),
		nullableString(msg.MediaFilename),
		nullableString(msg.MediaCaption),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		slog.Info("message already exists", "message_id", msg.MessageID)
		return nil
	}

	slog.Info("inserted message", "message_id", msg.MessageID, "chat_id", chatID)
	return nil
}

// UpdateMessageStatus records a provider delivery status for an outbound
// message. Unknown message ids are logged and ignored: status callbacks can
// arrive for messages sent before this process existed.
func (s *Store) UpdateMessageStatus(ctx context.Context, messageID, status string) error {
	cmdTag, err := s.db.Exec(ctx, `
        UPDATE crm.messages SET status = $2 WHERE message_id = $1
    `, messageID, status)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		slog.Info("status for unknown message", "message_id", messageID, "status", status)
	}
	return nil
}

// CallEventFilter narrows ListCallEvents. Zero values mean no constraint.
type CallEventFilter struct {
	From   time.Time
	To     time.Time
	Caller string
	Callee string
	CallID string
	Limit  int
}

// ListCallEvents returns recent call events, newest first.
func (s *Store) ListCallEvents(ctx context.Context, f CallEventFilter) ([]models.CallEventRow, error) {
	limit := clampLimit(f.Limit)

	var (
		where []string
		args  []any
		idx   = 1
	)
	if !f.From.IsZero() {
		where = append(where, "event_time >= $"+strconv.Itoa(idx))
		args = append(args, f.From)
		idx++
	}
	if !f.To.IsZero() {
		where = append(where, "event_time <= $"+strconv.Itoa(idx))
		args = append(args, f.To)
		idx++
	}
	if f.Caller != "" {
		where = append(where, "caller_number = $"+strconv.Itoa(idx))
		args = append(args, f.Caller)
		idx++
	}
	if f.Callee != "" {
		where = append(where, "callee_number = $"+strconv.Itoa(idx))
		args = append(args, f.Callee)
		idx++
	}
	if f.CallID != "" {
		where = append(where, "call_id = $"+strconv.Itoa(idx))
		args = append(args, f.CallID)
		idx++
	}

	query := "SELECT id, call_id, caller_number, callee_number, event_type, event_time, dtmf_digits, agent_number, created_at FROM crm.call_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY event_time DESC LIMIT " + strconv.Itoa(limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query call events: %w", err)
	}
	defer rows.Close()

	var items []models.CallEventRow
	for rows.Next() {
		var c models.CallEventRow
		if err := rows.Scan(
			&c.ID, &c.CallID, &c.CallerNumber, &c.CalleeNumber,
			&c.EventType, &c.EventTime, &c.DTMFDigits, &c.AgentNumber,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan call event: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// MessageFilter narrows ListMessages. Zero values mean no constraint.
type MessageFilter struct {
	ChatID string
	From   time.Time
	To     time.Time
	Limit  int
}

// ListMessages returns recent messages, newest first.
func (s *Store) ListMessages(ctx context.Context, f MessageFilter) ([]models.MessageRow, error) {
	limit := clampLimit(f.Limit)

	var (
		where []string
		args  []any
		idx   = 1
	)
	if f.ChatID != "" {
		where = append(where, "chat_id = $"+strconv.Itoa(idx))
		args = append(args, f.ChatID)
		idx++
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= $"+strconv.Itoa(idx))
		args = append(args, f.From)
		idx++
	}
	if !f.To.IsZero() {
		where = append(where, "created_at <= $"+strconv.Itoa(idx))
		args = append(args, f.To)
		idx++
	}

	query := "SELECT id, message_id, chat_id, from_number, to_number, direction, content_type, content, media_url, media_filename, media_caption, status, created_at FROM crm.messages"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + strconv.Itoa(limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var items []models.MessageRow
	for rows.Next() {
		var m models.MessageRow
		if err := rows.Scan(
			&m.ID, &m.MessageID, &m.ChatID, &m.FromNumber, &m.ToNumber,
			&m.Direction, &m.ContentType, &m.Content,
			&m.MediaURL, &m.MediaFilename, &m.MediaCaption,
			&m.Status, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Package assign links an unclaimed chat to one eligible agent on first
// inbound contact. Selection is deterministic round-robin: the active agent
// with a qualifying reply grant whose last assignment is oldest wins, ties
// broken by lowest agent id. At-most-one active assignment per chat is a
// storage invariant (unique index on chat_id where status = 'active'); this
// engine does not add its own locking around the check-then-insert.
package assign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"crm-console/internal/metrics"
	"crm-console/internal/models"
	"crm-console/internal/store"
)

type Engine struct {
	db store.Querier
}

func New(db store.Querier) *Engine {
	return &Engine{db: db}
}

// EnsureAssigned assigns chatID to one eligible agent if no active
// assignment exists. With zero eligible agents the chat stays unassigned
// and no error is returned; it becomes assignable on a later message.
// Callers treat any returned error as best-effort: log and continue.
func (e *Engine) EnsureAssigned(ctx context.Context, chatID string) error {
	var exists bool
	err := e.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM crm.chat_assignments
            WHERE chat_id = $1 AND status = 'active'
        )
    `, chatID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check assignment: %w", err)
	}
	if exists {
		return nil
	}

	var agentID int64
	err = e.db.QueryRow(ctx, `
        SELECT id FROM crm.agents
        WHERE is_active AND permissions && $1
        ORDER BY last_assigned_at ASC NULLS FIRST, id ASC
        LIMIT 1
    `, []string{models.PermReplyAny, models.PermReplyAssigned}).Scan(&agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Info("no eligible agent for auto-assignment", "chat_id", chatID)
			metrics.AutoAssignments.WithLabelValues("no_agent").Inc()
			return nil
		}
		return fmt.Errorf("select agent: %w", err)
	}

	cmdTag, err := e.db.Exec(ctx, `
        INSERT INTO crm.chat_assignments (chat_id, agent_id, status)
        VALUES ($1, $2, 'active')
        ON CONFLICT (chat_id) WHERE status = 'active' DO NOTHING
    `, chatID, agentID)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	// Lost the race to a concurrent first message: the agent got nothing,
	// so their round-robin position must not advance.
	if cmdTag.RowsAffected() == 0 {
		slog.Info("assignment already present", "chat_id", chatID)
		return nil
	}

	if _, err := e.db.Exec(ctx, `
        UPDATE crm.agents SET last_assigned_at = now() WHERE id = $1
    `, agentID); err != nil {
		return fmt.Errorf("bump last_assigned_at: %w", err)
	}

	slog.Info("auto-assigned chat", "chat_id", chatID, "agent_id", agentID)
	metrics.AutoAssignments.WithLabelValues("assigned").Inc()
	return nil
}

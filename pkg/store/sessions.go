package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/relayhq/relayd/pkg/apperr"
)

// EnsureSession creates a session if it does not already exist,
// returning the existing or newly created row — sessions are created
// on demand when a WebSocket attaches or a webhook synthesizes a task
// in the absence of an existing session.
func (s *Store) EnsureSession(ctx context.Context, id, userID, machineID string) (*Session, error) {
	now := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, machine_id, connected_at) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO NOTHING`, id, userID, machineID, now)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "ensure session", err)
	}
	return s.LoadSession(ctx, id)
}

func (s *Store) LoadSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, machine_id, cost_usd, task_count, connected_at, disconnected_at
		FROM sessions WHERE id=$1`, id).Scan(
		&sess.ID, &sess.UserID, &sess.MachineID, &sess.CostUSD, &sess.TaskCount,
		&sess.ConnectedAt, &sess.DisconnectedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "session not found")
		}
		return nil, apperr.Wrap(apperr.KindBackend, "load session", err)
	}
	return &sess, nil
}

// MarkDisconnected stamps a session's disconnect time, used when its
// WebSocket detaches.
func (s *Store) MarkDisconnected(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE sessions SET disconnected_at = now() WHERE id=$1`, id)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "mark disconnected", err)
	}
	return nil
}

// ApplySessionAggregate mirrors ApplyConversationAggregate for the
// owning session's totals.
func (s *Store) ApplySessionAggregate(ctx context.Context, sessionID string, costUSD float64) error {
	if sessionID == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET cost_usd = cost_usd + $1, task_count = task_count + 1 WHERE id = $2`,
		costUSD, sessionID)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "apply session aggregate", err)
	}
	return nil
}

// PruneIdleSessions deletes sessions disconnected for longer than
// idleFor, backing a periodic background sweep.
func (s *Store) PruneIdleSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sessions WHERE disconnected_at IS NOT NULL AND disconnected_at < $1`,
		time.Now().Add(-idleFor))
	if err != nil {
		return 0, apperr.Wrap(apperr.KindBackend, "prune idle sessions", err)
	}
	return int(tag.RowsAffected()), nil
}

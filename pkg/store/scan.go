package store

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const taskSelectColumns = `SELECT id, session_id, conversation_id, flow_id, external_id,
	agent_name, agent_kind, status, input_prompt, output_stream, cost_usd,
	input_tokens, output_tokens, duration_seconds, source, source_metadata,
	parent_task_id, error_message, created_at, started_at, completed_at,
	last_interaction_at, deleted_at`

// row is the minimal interface both pgx.Row and pgx.Rows satisfy.
type row interface {
	Scan(dest ...any) error
}

func scanTask(r row) (*Task, error) {
	var t Task
	var meta []byte
	if err := r.Scan(
		&t.ID, &t.SessionID, &t.ConversationID, &t.FlowID, &t.ExternalID,
		&t.AgentName, &t.AgentKind, &t.Status, &t.InputPrompt, &t.OutputStream, &t.CostUSD,
		&t.InputTokens, &t.OutputTokens, &t.DurationSeconds, &t.Source, &meta,
		&t.ParentTaskID, &t.ErrorMessage, &t.CreatedAt, &t.StartedAt, &t.CompletedAt,
		&t.LastInteractionAt, &t.DeletedAt,
	); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.SourceMetadata); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

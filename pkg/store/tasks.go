package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/relayhq/relayd/pkg/apperr"
)

// allowed transitions for UpdateTaskStatus; anything not listed here
// is rejected with apperr.KindInvalid. queued -> cancelled isn't part
// of the documented task lifecycle (only queued -> running is) but is
// kept open for a future cancel-before-claim admin action.
var allowedTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskQueued:  {TaskRunning: true, TaskCancelled: true},
	TaskRunning: {TaskCompleted: true, TaskFailed: true, TaskCancelled: true},
}

// CreateTask inserts a new task in the queued state.
func (s *Store) CreateTask(ctx context.Context, t Task) (string, error) {
	if t.ID == "" || t.AgentName == "" {
		return "", apperr.New(apperr.KindInvalid, "task id and agent name are required")
	}
	if t.Status == "" {
		t.Status = TaskQueued
	}
	meta, err := json.Marshal(nonNilMap(t.SourceMetadata))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalid, "encode source metadata", err)
	}
	now := time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tasks (id, session_id, conversation_id, flow_id, external_id,
			agent_name, agent_kind, status, input_prompt, source, source_metadata,
			parent_task_id, created_at, last_interaction_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)`,
		t.ID, t.SessionID, t.ConversationID, t.FlowID, t.ExternalID,
		t.AgentName, t.AgentKind, t.Status, t.InputPrompt, t.Source, meta,
		t.ParentTaskID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", apperr.Wrap(apperr.KindConflict, "task id already exists", err)
		}
		return "", apperr.Wrap(apperr.KindBackend, "insert task", err)
	}
	return t.ID, nil
}

// LoadTaskByID returns a single task, or apperr.KindNotFound.
func (s *Store) LoadTaskByID(ctx context.Context, id string) (*Task, error) {
	row := s.pool.QueryRow(ctx, taskSelectColumns+` FROM tasks WHERE id = $1 AND deleted_at IS NULL`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "task not found")
		}
		return nil, apperr.Wrap(apperr.KindBackend, "load task", err)
	}
	return t, nil
}

// UpdateTaskStatus enforces the task state machine. Terminal fields
// (cost, tokens, duration, output, error) are written in the same
// statement as the transition so the terminal write is atomic.
type TerminalFields struct {
	CostUSD         float64
	InputTokens     int
	OutputTokens    int
	DurationSeconds float64
	OutputStream    string
	ErrorMessage    string
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id string, newStatus TaskStatus, terminal *TerminalFields) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current TaskStatus
	err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperr.New(apperr.KindNotFound, "task not found")
		}
		return apperr.Wrap(apperr.KindBackend, "load task status", err)
	}
	if !allowedTransitions[current][newStatus] {
		return apperr.New(apperr.KindInvalid, fmt.Sprintf("illegal task transition %s -> %s", current, newStatus))
	}

	now := time.Now()
	switch newStatus {
	case TaskRunning:
		_, err = tx.Exec(ctx, `UPDATE tasks SET status=$1, started_at=$2, last_interaction_at=$2 WHERE id=$3`,
			newStatus, now, id)
	case TaskCompleted, TaskFailed:
		if terminal == nil {
			return apperr.New(apperr.KindInvalid, "terminal fields are required for completed/failed tasks")
		}
		_, err = tx.Exec(ctx, `
			UPDATE tasks SET status=$1, completed_at=$2, cost_usd=$3, input_tokens=$4,
				output_tokens=$5, duration_seconds=$6, output_stream=$7, error_message=$8,
				last_interaction_at=$2
			WHERE id=$9`,
			newStatus, now, terminal.CostUSD, terminal.InputTokens, terminal.OutputTokens,
			terminal.DurationSeconds, terminal.OutputStream, terminal.ErrorMessage, id)
	case TaskCancelled:
		if terminal == nil {
			terminal = &TerminalFields{}
		}
		_, err = tx.Exec(ctx, `
			UPDATE tasks SET status=$1, completed_at=$2, cost_usd=$3, input_tokens=$4,
				output_tokens=$5, duration_seconds=$6, output_stream=$7, error_message=$8,
				last_interaction_at=$2
			WHERE id=$9`,
			newStatus, now, terminal.CostUSD, terminal.InputTokens, terminal.OutputTokens,
			terminal.DurationSeconds, terminal.OutputStream, terminal.ErrorMessage, id)
	default:
		_, err = tx.Exec(ctx, `UPDATE tasks SET status=$1, last_interaction_at=$2 WHERE id=$3`, newStatus, now, id)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "update task status", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindBackend, "commit tx", err)
	}
	return nil
}

// AppendOutputChunk appends to output_stream only while the task is
// running; a no-op otherwise.
func (s *Store) AppendOutputChunk(ctx context.Context, id, chunk string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET output_stream = output_stream || $1, last_interaction_at = now()
		WHERE id = $2 AND status = $3`, chunk, id, TaskRunning)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "append output chunk", err)
	}
	_ = tag
	return nil
}

// Heartbeat bumps last_interaction_at for a running task without
// touching any other field.
func (s *Store) Heartbeat(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tasks SET last_interaction_at = now() WHERE id = $1 AND status = $2`,
		id, TaskRunning)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "heartbeat", err)
	}
	return nil
}

// ClaimNextTask atomically claims the oldest queued task using
// SELECT ... FOR UPDATE SKIP LOCKED, so parallel workers never block
// each other on contention — the concrete mechanism behind the
// Queue's Pop contract.
func (s *Store) ClaimNextTask(ctx context.Context) (*Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, taskSelectColumns+`
		FROM tasks WHERE status = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED`, TaskQueued)
	t, err := scanTask(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindBackend, "claim next task", err)
	}

	now := time.Now()
	_, err = tx.Exec(ctx, `UPDATE tasks SET status=$1, started_at=$2, last_interaction_at=$2 WHERE id=$3`,
		TaskRunning, now, t.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "claim next task", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "commit claim", err)
	}
	t.Status = TaskRunning
	t.StartedAt = &now
	return t, nil
}

// CountRunningTasks is used by the worker pool to enforce the global
// concurrency ceiling ahead of claiming.
func (s *Store) CountRunningTasks(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE status = $1`, TaskRunning).Scan(&n)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindBackend, "count running tasks", err)
	}
	return n, nil
}

// ListStaleRunningTasks returns running tasks whose last_interaction_at
// is older than the given threshold — candidates for orphan recovery
//.
func (s *Store) ListStaleRunningTasks(ctx context.Context, threshold time.Time) ([]*Task, error) {
	rows, err := s.pool.Query(ctx, taskSelectColumns+`
		FROM tasks WHERE status = $1 AND last_interaction_at < $2 AND deleted_at IS NULL`,
		TaskRunning, threshold)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "list stale running tasks", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan stale task row", err)
		}
		out = append(out, t)
	}
	return out, nil
}

var sortColumns = map[string]string{
	"created_at":   "created_at",
	"status":       "status",
	"agent_name":   "agent_name",
	"cost_usd":     "cost_usd",
	"completed_at": "completed_at",
}

// PageTaskTable returns a paginated, filtered task listing, sorting on
// a whitelisted column only.
func (s *Store) PageTaskTable(ctx context.Context, f TaskFilter) (*TaskPage, error) {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}

	where := `WHERE deleted_at IS NULL`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.SessionID != "" {
		where += " AND session_id = " + arg(f.SessionID)
	}
	if f.Status != "" {
		where += " AND status = " + arg(f.Status)
	}
	if f.AgentName != "" {
		where += " AND agent_name = " + arg(f.AgentName)
	}
	if f.Since != nil {
		where += " AND created_at >= " + arg(*f.Since)
	}
	if f.Until != nil {
		where += " AND created_at <= " + arg(*f.Until)
	}

	var total int
	countQuery := "SELECT count(*) FROM tasks " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "count tasks", err)
	}

	limitArg := arg(f.PageSize)
	offsetArg := arg((f.Page - 1) * f.PageSize)
	query := fmt.Sprintf("%s %s ORDER BY %s %s LIMIT %s OFFSET %s", taskSelectColumns, where, col, dir, limitArg, offsetArg)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "page tasks", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan task row", err)
		}
		tasks = append(tasks, *t)
	}
	return &TaskPage{Tasks: tasks, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/relayhq/relayd/pkg/apperr"
)

const conversationSelectColumns = `SELECT id, title, user_id, flow_id, cost_usd, input_tokens,
	output_tokens, task_count, created_at, updated_at, archived_at`

func scanConversation(r row) (*Conversation, error) {
	var c Conversation
	if err := r.Scan(&c.ID, &c.Title, &c.UserID, &c.FlowID, &c.CostUSD, &c.InputTokens,
		&c.OutputTokens, &c.TaskCount, &c.CreatedAt, &c.UpdatedAt, &c.ArchivedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConversation inserts a new conversation.
func (s *Store) CreateConversation(ctx context.Context, c Conversation) (string, error) {
	if c.ID == "" {
		return "", apperr.New(apperr.KindInvalid, "conversation id is required")
	}
	now := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, title, user_id, flow_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)`, c.ID, c.Title, c.UserID, c.FlowID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return "", apperr.Wrap(apperr.KindConflict, "conversation id already exists", err)
		}
		return "", apperr.Wrap(apperr.KindBackend, "insert conversation", err)
	}
	return c.ID, nil
}

// LoadConversationByID returns a conversation by id.
func (s *Store) LoadConversationByID(ctx context.Context, id string) (*Conversation, error) {
	row := s.pool.QueryRow(ctx, conversationSelectColumns+` FROM conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "conversation not found")
		}
		return nil, apperr.Wrap(apperr.KindBackend, "load conversation", err)
	}
	return c, nil
}

// FindConversationByFlowID looks up the conversation bound to a flow,
// used when deriving flow/conversation identity for a new task.
func (s *Store) FindConversationByFlowID(ctx context.Context, flowID string) (*Conversation, error) {
	row := s.pool.QueryRow(ctx, conversationSelectColumns+` FROM conversations
		WHERE flow_id = $1 AND archived_at IS NULL ORDER BY created_at ASC LIMIT 1`, flowID)
	c, err := scanConversation(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindBackend, "find conversation by flow", err)
	}
	return c, nil
}

// ListConversations returns non-archived conversations, most recently
// updated first, for the admin listing endpoint.
func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, conversationSelectColumns+`
		FROM conversations WHERE archived_at IS NULL ORDER BY updated_at DESC LIMIT 200`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "list conversations", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan conversation row", err)
		}
		out = append(out, *c)
	}
	return out, nil
}

// UpdateConversation updates a conversation's title only.
func (s *Store) UpdateConversation(ctx context.Context, id, title string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE conversations SET title=$1, updated_at=now() WHERE id=$2`, title, id)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "update conversation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "conversation not found")
	}
	return nil
}

// DeleteConversation soft-archives a conversation.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE conversations SET archived_at=now() WHERE id=$1 AND archived_at IS NULL`, id)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "delete conversation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "conversation not found")
	}
	return nil
}

// ClearMessages drops a conversation's messages but keeps its
// accumulated cost/token aggregates.
func (s *Store) ClearMessages(ctx context.Context, conversationID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE conversation_id=$1`, conversationID)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "clear messages", err)
	}
	return nil
}

// AppendMessage appends a message to a conversation with a
// monotonically increasing sequence number.
func (s *Store) AppendMessage(ctx context.Context, m Message) (string, error) {
	if m.ID == "" || m.ConversationID == "" {
		return "", apperr.New(apperr.KindInvalid, "message id and conversation id are required")
	}
	var seq int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, task_id, sequence)
		VALUES ($1,$2,$3,$4,$5, (SELECT coalesce(max(sequence),0)+1 FROM messages WHERE conversation_id=$2))
		RETURNING sequence`, m.ID, m.ConversationID, m.Role, m.Content, m.TaskID).Scan(&seq)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBackend, "append message", err)
	}
	return m.ID, nil
}

// ListMessages returns a conversation's messages in forward
// chronological order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	return s.queryMessages(ctx, conversationID, 0)
}

// GetContext returns the most recent maxMessages messages in forward
// chronological order.
func (s *Store) GetContext(ctx context.Context, conversationID string, maxMessages int) ([]Message, error) {
	return s.queryMessages(ctx, conversationID, maxMessages)
}

func (s *Store) queryMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT id, conversation_id, role, content, task_id, sequence, created_at FROM (
				SELECT id, conversation_id, role, content, task_id, sequence, created_at
				FROM messages WHERE conversation_id=$1 ORDER BY sequence DESC LIMIT $2
			) recent ORDER BY sequence ASC`, conversationID, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, conversation_id, role, content, task_id, sequence, created_at
			FROM messages WHERE conversation_id=$1 ORDER BY sequence ASC`, conversationID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "list messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.TaskID, &m.Sequence, &m.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan message", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ApplyConversationAggregate adds a completed task's accounting to
// its conversation's running totals. Updated on each task completion,
// so totals are eventually consistent rather than recomputed live.
func (s *Store) ApplyConversationAggregate(ctx context.Context, conversationID string, costUSD float64, inputTokens, outputTokens int) error {
	if conversationID == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations SET cost_usd = cost_usd + $1, input_tokens = input_tokens + $2,
			output_tokens = output_tokens + $3, task_count = task_count + 1, updated_at = now()
		WHERE id = $4`, costUSD, inputTokens, outputTokens, conversationID)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, "apply conversation aggregate", err)
	}
	return nil
}

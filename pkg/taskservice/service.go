// Package taskservice is the single seam through which both the chat
// API and the webhook engine create tasks, so flow/conversation
// identity is derived in exactly one place regardless of which
// surface originated the task.
package taskservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/relayhq/relayd/pkg/apperr"
	"github.com/relayhq/relayd/pkg/config"
	"github.com/relayhq/relayd/pkg/flow"
	"github.com/relayhq/relayd/pkg/store"
	"github.com/relayhq/relayd/pkg/webhook"
)

// contextWindowSize is the number of prior messages folded into a new
// chat task's prompt.
const contextWindowSize = 20

// Service implements webhook.TaskCreator and additionally exposes the
// chat-submission path used by the admin API.
type Service struct {
	store *store.Store
}

// New returns a Service backed by st.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

var _ webhook.TaskCreator = (*Service)(nil)

// CreateTask implements webhook.TaskCreator: it derives the task's
// flow id from its external id (or inherits the parent's), finds or
// creates the owning conversation, and inserts the task in the queued
// state for the worker pool to pick up.
func (s *Service) CreateTask(ctx context.Context, in webhook.CreateTaskInput) (string, error) {
	parentFlowID := ""
	if in.ParentTaskID != "" {
		parent, err := s.store.LoadTaskByID(ctx, in.ParentTaskID)
		if err == nil {
			parentFlowID = parent.FlowID
		}
	}
	flowID := flow.DeriveFlowID(parentFlowID, in.ExternalID)

	conv, err := s.store.FindConversationByFlowID(ctx, flowID)
	if err != nil {
		return "", err
	}
	if conv == nil {
		convID, err := s.store.CreateConversation(ctx, store.Conversation{
			ID:     uuid.NewString(),
			Title:  in.AgentName,
			FlowID: flowID,
		})
		if err != nil {
			return "", err
		}
		conv = &store.Conversation{ID: convID, FlowID: flowID}
	}

	// Webhook-originated tasks have no pre-existing session, unlike
	// chat tasks which carry one from the WebSocket connection — so
	// one is synthesized here.
	sess, err := s.store.EnsureSession(ctx, uuid.NewString(), "", "")
	if err != nil {
		return "", err
	}

	taskID := uuid.NewString()
	_, err = s.store.CreateTask(ctx, store.Task{
		ID:             taskID,
		SessionID:      sess.ID,
		ConversationID: conv.ID,
		FlowID:         flowID,
		ExternalID:     in.ExternalID,
		AgentName:      in.AgentName,
		AgentKind:      string(config.AgentDefault),
		InputPrompt:    in.Prompt,
		Source:         store.SourceWebhook,
		SourceMetadata: in.SourceMetadata,
		ParentTaskID:   in.ParentTaskID,
	})
	if err != nil {
		return "", err
	}
	return taskID, nil
}

// ChatInput carries a submitted chat message.
type ChatInput struct {
	SessionID      string
	ConversationID string
	Content        string
	AgentName      string
	Metadata       map[string]any
}

// ChatResult is what SubmitChat hands back to the caller.
type ChatResult struct {
	TaskID         string
	ConversationID string
}

// SubmitChat appends the user's message to its conversation (creating
// one if none was given), renders a context-carrying prompt from the
// conversation's recent history, and enqueues a task to process it.
func (s *Service) SubmitChat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	if in.Content == "" {
		return nil, apperr.New(apperr.KindInvalid, "content is required")
	}
	if in.SessionID == "" {
		return nil, apperr.New(apperr.KindInvalid, "session_id is required")
	}
	if _, err := s.store.EnsureSession(ctx, in.SessionID, "", ""); err != nil {
		return nil, err
	}

	convID := in.ConversationID
	if convID == "" {
		convID = uuid.NewString()
		if _, err := s.store.CreateConversation(ctx, store.Conversation{
			ID:     convID,
			Title:  truncateTitle(in.Content),
			FlowID: uuid.NewString(),
		}); err != nil {
			return nil, err
		}
	} else if _, err := s.store.LoadConversationByID(ctx, convID); err != nil {
		return nil, err
	}

	history, err := s.store.GetContext(ctx, convID, contextWindowSize)
	if err != nil {
		return nil, err
	}
	prompt := BuildChatPrompt(history, in.Content)

	agentName := in.AgentName
	if agentName == "" {
		agentName = string(config.AgentDefault)
	}

	userMsgID := uuid.NewString()
	if _, err := s.store.AppendMessage(ctx, store.Message{
		ID:             userMsgID,
		ConversationID: convID,
		Role:           store.RoleUser,
		Content:        in.Content,
	}); err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	if _, err := s.store.CreateTask(ctx, store.Task{
		ID:             taskID,
		SessionID:      in.SessionID,
		ConversationID: convID,
		AgentName:      agentName,
		AgentKind:      string(config.AgentDefault),
		InputPrompt:    prompt,
		Source:         store.SourceChat,
		SourceMetadata: in.Metadata,
	}); err != nil {
		return nil, err
	}

	return &ChatResult{TaskID: taskID, ConversationID: convID}, nil
}

// BuildChatPrompt renders the context-carrying prompt shape: prior
// history under a fixed header, followed by the new message under its
// own header. With no history the headers are omitted and the message
// passes through unmodified.
func BuildChatPrompt(history []store.Message, newMessage string) string {
	if len(history) == 0 {
		return newMessage
	}
	var b strings.Builder
	b.WriteString("## Previous Conversation Context:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("\n## Current Message:\n")
	b.WriteString(newMessage)
	return b.String()
}

func truncateTitle(content string) string {
	const max = 80
	if len(content) <= max {
		return content
	}
	return content[:max]
}

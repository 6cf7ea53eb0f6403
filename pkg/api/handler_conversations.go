package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/relayhq/relayd/pkg/store"
)

func (s *Server) listConversationsHandler(c *echo.Context) error {
	convs, err := s.store.ListConversations(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	out := make([]ConversationResponse, len(convs))
	for i, conv := range convs {
		out[i] = toConversationResponse(&conv)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createConversationHandler(c *echo.Context) error {
	var req UpdateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := s.store.CreateConversation(c.Request().Context(), store.Conversation{
		ID:     uuid.NewString(),
		Title:  req.Title,
		FlowID: uuid.NewString(),
	})
	if err != nil {
		return mapError(err)
	}
	conv, err := s.store.LoadConversationByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toConversationResponse(conv))
}

func (s *Server) getConversationHandler(c *echo.Context) error {
	conv, err := s.store.LoadConversationByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conv))
}

func (s *Server) updateConversationHandler(c *echo.Context) error {
	var req UpdateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.UpdateConversation(c.Request().Context(), c.Param("id"), req.Title); err != nil {
		return mapError(err)
	}
	conv, err := s.store.LoadConversationByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toConversationResponse(conv))
}

func (s *Server) deleteConversationHandler(c *echo.Context) error {
	if err := s.store.DeleteConversation(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listMessagesHandler(c *echo.Context) error {
	msgs, err := s.store.ListMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

func (s *Server) appendMessageHandler(c *echo.Context) error {
	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		TaskID  string `json:"task_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	role := store.MessageRole(req.Role)
	if role == "" {
		role = store.RoleUser
	}
	id, err := s.store.AppendMessage(c.Request().Context(), store.Message{
		ID:             uuid.NewString(),
		ConversationID: c.Param("id"),
		Role:           role,
		Content:        req.Content,
		TaskID:         req.TaskID,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) getContextHandler(c *echo.Context) error {
	maxMessages := atoiOr(c.QueryParam("limit"), 20)
	msgs, err := s.store.GetContext(c.Request().Context(), c.Param("id"), maxMessages)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

func (s *Server) clearConversationHandler(c *echo.Context) error {
	if err := s.store.ClearMessages(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toConversationResponse(conv *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:           conv.ID,
		Title:        conv.Title,
		FlowID:       conv.FlowID,
		CostUSD:      conv.CostUSD,
		InputTokens:  conv.InputTokens,
		OutputTokens: conv.OutputTokens,
		TaskCount:    conv.TaskCount,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func toMessageResponses(msgs []store.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			TaskID:    m.TaskID,
			Sequence:  m.Sequence,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}

package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/relayhq/relayd/pkg/taskservice"
)

// chatHandler handles POST /api/chat.
func (s *Server) chatHandler(c *echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.tasks.SubmitChat(c.Request().Context(), taskservice.ChatInput{
		SessionID:      req.SessionID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		AgentName:      req.AgentName,
		Metadata:       req.Metadata,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, ChatResponse{
		TaskID:         result.TaskID,
		ConversationID: result.ConversationID,
	})
}

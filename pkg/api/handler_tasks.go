package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/relayhq/relayd/pkg/store"
)

// taskTableHandler handles GET /api/tasks/table.
func (s *Server) taskTableHandler(c *echo.Context) error {
	q := c.QueryParams()
	filter := store.TaskFilter{
		SessionID: q.Get("session_id"),
		AgentName: q.Get("subagent"),
		SortBy:    q.Get("sort_by"),
		SortDesc:  q.Get("sort_order") == "desc",
		Page:      atoiOr(q.Get("page"), 1),
		PageSize:  atoiOr(q.Get("page_size"), 50),
	}
	if v := q.Get("status"); v != "" {
		filter.Status = store.TaskStatus(v)
	}

	page, err := s.store.PageTaskTable(c.Request().Context(), filter)
	if err != nil {
		return mapError(err)
	}

	tasks := make([]TaskResponse, len(page.Tasks))
	for i, t := range page.Tasks {
		tasks[i] = toTaskResponse(&t)
	}
	return c.JSON(http.StatusOK, TaskTableResponse{
		Tasks:    tasks,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// taskDetailHandler handles GET /api/tasks/:id.
func (s *Server) taskDetailHandler(c *echo.Context) error {
	t, err := s.store.LoadTaskByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toTaskResponse(t))
}

func toTaskResponse(t *store.Task) TaskResponse {
	return TaskResponse{
		ID:              t.ID,
		SessionID:       t.SessionID,
		ConversationID:  t.ConversationID,
		FlowID:          t.FlowID,
		AgentName:       t.AgentName,
		Status:          string(t.Status),
		InputPrompt:     t.InputPrompt,
		OutputStream:    t.OutputStream,
		CostUSD:         t.CostUSD,
		InputTokens:     t.InputTokens,
		OutputTokens:    t.OutputTokens,
		DurationSeconds: t.DurationSeconds,
		Source:          string(t.Source),
		ParentTaskID:    t.ParentTaskID,
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
	}
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

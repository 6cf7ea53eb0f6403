package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

func (s *Server) analyticsSummaryHandler(c *echo.Context) error {
	summary, err := s.store.Summary(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, AnalyticsSummaryResponse{
		TotalTasks:      summary.TotalTasks,
		TotalCostUSD:    summary.TotalCostUSD,
		TotalInputToks:  summary.InputTokens,
		TotalOutputToks: summary.OutputTokens,
	})
}

func (s *Server) dailyCostsHandler(c *echo.Context) error {
	days := atoiOr(c.QueryParam("days"), 30)
	since := time.Now().AddDate(0, 0, -days)

	points, err := s.store.DailyCosts(c.Request().Context(), since)
	if err != nil {
		return mapError(err)
	}
	out := make([]DailyCostPoint, len(points))
	for i, p := range points {
		out[i] = DailyCostPoint{Date: p.Day.Format("2006-01-02"), CostUSD: p.CostUSD}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) costsByAgentHandler(c *echo.Context) error {
	days := atoiOr(c.QueryParam("days"), 30)
	since := time.Now().AddDate(0, 0, -days)

	rows, err := s.store.CostsByAgent(c.Request().Context(), since)
	if err != nil {
		return mapError(err)
	}
	out := make([]AgentCostPoint, len(rows))
	for i, r := range rows {
		out[i] = AgentCostPoint{AgentName: r.AgentName, CostUSD: r.CostUSD, TaskCount: r.TaskCount}
	}
	return c.JSON(http.StatusOK, out)
}

// queueHealthHandler handles the supplemented GET /api/queue/health
// route, exposing the worker pool's PoolHealth.
func (s *Server) queueHealthHandler(c *echo.Context) error {
	if s.pool == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "queue not available")
	}
	health := s.pool.Health(c.Request().Context())
	status := http.StatusOK
	if !health.IsHealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, health)
}

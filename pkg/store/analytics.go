package store

import (
	"context"
	"time"

	"github.com/relayhq/relayd/pkg/apperr"
)

// AnalyticsSummary is the aggregate cost/token/task-count view used by
// the admin dashboard's top-line summary card.
type AnalyticsSummary struct {
	TotalTasks   int
	TotalCostUSD float64
	InputTokens  int64
	OutputTokens int64
}

// Summary aggregates cost and token usage across all non-deleted
// tasks.
func (s *Store) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	var out AnalyticsSummary
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), coalesce(sum(cost_usd), 0), coalesce(sum(input_tokens), 0), coalesce(sum(output_tokens), 0)
		FROM tasks WHERE deleted_at IS NULL`,
	).Scan(&out.TotalTasks, &out.TotalCostUSD, &out.InputTokens, &out.OutputTokens)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "analytics summary", err)
	}
	return &out, nil
}

// DailyCost is one day's total spend.
type DailyCost struct {
	Day     time.Time
	CostUSD float64
}

// DailyCosts returns cost totals bucketed by day over the trailing
// window, oldest first.
func (s *Store) DailyCosts(ctx context.Context, since time.Time) ([]DailyCost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day, coalesce(sum(cost_usd), 0)
		FROM tasks WHERE deleted_at IS NULL AND created_at >= $1
		GROUP BY day ORDER BY day ASC`, since)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "daily costs", err)
	}
	defer rows.Close()

	var out []DailyCost
	for rows.Next() {
		var d DailyCost
		if err := rows.Scan(&d.Day, &d.CostUSD); err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan daily cost row", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// AgentCost is the per-agent cost/task-count breakdown used by the
// "cost by subagent" chart.
type AgentCost struct {
	AgentName string
	CostUSD   float64
	TaskCount int
}

// CostsByAgent returns cost and task-count totals grouped by
// agent_name since the given time, highest spend first.
func (s *Store) CostsByAgent(ctx context.Context, since time.Time) ([]AgentCost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT agent_name, coalesce(sum(cost_usd), 0), count(*)
		FROM tasks WHERE deleted_at IS NULL AND created_at >= $1
		GROUP BY agent_name ORDER BY sum(cost_usd) DESC`, since)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, "costs by agent", err)
	}
	defer rows.Close()

	var out []AgentCost
	for rows.Next() {
		var a AgentCost
		if err := rows.Scan(&a.AgentName, &a.CostUSD, &a.TaskCount); err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, "scan agent cost row", err)
		}
		out = append(out, a)
	}
	return out, nil
}

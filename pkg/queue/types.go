// Package queue implements the task queue and worker pool: claiming,
// heartbeat, timeout, and orphan recovery for tasks stored in
// pkg/store. One task equals one CLI invocation.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/relayhq/relayd/pkg/store"
)

// Sentinel errors for queue operations.
var (
	ErrNoTasksAvailable = errors.New("no tasks available")
	ErrAtCapacity       = errors.New("at capacity")
)

// TaskExecutor owns a single task's execution from claim to terminal
// state; the worker only handles claiming, heartbeat, and terminal
// status bookkeeping.
type TaskExecutor interface {
	Execute(ctx context.Context, task *store.Task) *ExecutionResult
}

// ExecutionResult is the terminal outcome of one task execution.
type ExecutionResult struct {
	Status   store.TaskStatus
	Terminal store.TerminalFields
	Error    error
}

// PoolHealth reports the worker pool's current state for the
// supplemented GET /api/queue/health endpoint.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	StoreReachable   bool           `json:"store_reachable"`
	StoreError       string         `json:"store_error,omitempty"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	ActiveTasks      int            `json:"active_tasks"`
	MaxConcurrent    int            `json:"max_concurrent"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

// WorkerHealth reports a single worker's current state.
type WorkerHealth struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	CurrentTaskID    string    `json:"current_task_id,omitempty"`
	TasksProcessed   int       `json:"tasks_processed"`
	LastActivity     time.Time `json:"last_activity"`
}

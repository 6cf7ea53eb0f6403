package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/relayhq/relayd/pkg/config"
	"github.com/relayhq/relayd/pkg/store"
)

// WorkerStatus is a worker's current activity state.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// TaskRegistry is the subset of WorkerPool a Worker needs for cancel
// registration.
type TaskRegistry interface {
	RegisterTask(taskID string, cancel context.CancelFunc)
	UnregisterTask(taskID string)
}

// Worker polls the Store for claimable tasks and drives each one
// through TaskExecutor to a terminal state.
type Worker struct {
	id       string
	nodeID   string
	store    *store.Store
	config   *config.QueueConfig
	executor TaskExecutor
	pool     TaskRegistry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu             sync.RWMutex
	status         WorkerStatus
	currentTaskID  string
	tasksProcessed int
	lastActivity   time.Time
}

// NewWorker builds a Worker bound to a Store and TaskExecutor.
func NewWorker(id, nodeID string, st *store.Store, cfg *config.QueueConfig, executor TaskExecutor, pool TaskRegistry) *Worker {
	return &Worker{
		id:           id,
		nodeID:       nodeID,
		store:        st,
		config:       cfg,
		executor:     executor,
		pool:         pool,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker's polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish its
// current task, if any.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health reports the worker's current activity state.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         string(w.status),
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
		LastActivity:   w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id, "node_id", w.nodeID)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoTasksAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing task", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess checks capacity, claims a task, and runs it to
// completion.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	activeCount, err := w.store.CountRunningTasks(ctx)
	if err != nil {
		return fmt.Errorf("checking active tasks: %w", err)
	}
	if activeCount >= w.config.MaxConcurrentTasks {
		return ErrAtCapacity
	}

	task, err := w.store.ClaimNextTask(ctx)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrNoTasksAvailable
	}

	log := slog.With("task_id", task.ID, "worker_id", w.id)
	log.Info("task claimed")

	w.setStatus(WorkerStatusWorking, task.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	taskCtx, cancelTask := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancelTask()

	w.pool.RegisterTask(task.ID, cancelTask)
	defer w.pool.UnregisterTask(task.ID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(taskCtx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx, task.ID)

	result := w.executor.Execute(taskCtx, task)
	if result == nil {
		result = w.synthesizeResult(taskCtx)
	}
	if result.Status == "" {
		result = w.classifyContextErr(taskCtx, result)
	}

	cancelHeartbeat()

	if err := w.finalize(context.Background(), task.ID, result); err != nil {
		log.Error("failed to write terminal status", "error", err)
		return err
	}

	w.mu.Lock()
	w.tasksProcessed++
	w.mu.Unlock()

	log.Info("task processing complete", "status", result.Status)
	return nil
}

func (w *Worker) synthesizeResult(ctx context.Context) *ExecutionResult {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &ExecutionResult{Status: store.TaskFailed, Error: fmt.Errorf("task timed out")}
	case errors.Is(ctx.Err(), context.Canceled):
		return &ExecutionResult{Status: store.TaskCancelled, Error: context.Canceled}
	default:
		return &ExecutionResult{Status: store.TaskFailed, Error: fmt.Errorf("executor returned nil result")}
	}
}

func (w *Worker) classifyContextErr(ctx context.Context, result *ExecutionResult) *ExecutionResult {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Status = store.TaskFailed
		result.Error = fmt.Errorf("task timed out")
	case errors.Is(ctx.Err(), context.Canceled):
		result.Status = store.TaskCancelled
		result.Error = context.Canceled
	default:
		result.Status = store.TaskFailed
	}
	return result
}

func (w *Worker) finalize(ctx context.Context, taskID string, result *ExecutionResult) error {
	terminal := result.Terminal
	if result.Error != nil && terminal.ErrorMessage == "" {
		terminal.ErrorMessage = result.Error.Error()
	}
	return w.store.UpdateTaskStatus(ctx, taskID, result.Status, &terminal)
}

// runHeartbeat periodically updates last_interaction_at so orphan
// detection does not reclaim a still-running task.
func (w *Worker) runHeartbeat(ctx context.Context, taskID string) {
	interval := w.config.OrphanThreshold / 6
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.Heartbeat(ctx, taskID); err != nil {
				slog.Warn("heartbeat update failed", "task_id", taskID, "error", err)
			}
		}
	}
}

// pollInterval returns the poll duration with jitter, to desynchronize
// workers polling the same table.
func (w *Worker) pollInterval() time.Duration {
	base := w.config.PollInterval
	jitter := w.config.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func (w *Worker) setStatus(status WorkerStatus, taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}

package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/relayhq/relayd/pkg/config"
	"github.com/relayhq/relayd/pkg/store"
)

// WorkerPool manages a pool of queue workers operating against a
// single Store.
type WorkerPool struct {
	nodeID   string
	store    *store.Store
	config   *config.QueueConfig
	executor TaskExecutor
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	activeTasks map[string]context.CancelFunc
	mu          sync.RWMutex
	started     bool

	orphans orphanState
}

// NewWorkerPool creates a new worker pool bound to nodeID (used as the
// prefix of its workers' ids and in its log fields).
func NewWorkerPool(nodeID string, st *store.Store, cfg *config.QueueConfig, executor TaskExecutor) *WorkerPool {
	return &WorkerPool{
		nodeID:      nodeID,
		store:       st,
		config:      cfg,
		executor:    executor,
		workers:     make([]*Worker, 0, cfg.WorkerCount),
		stopCh:      make(chan struct{}),
		activeTasks: make(map[string]context.CancelFunc),
	}
}

// Start spawns worker goroutines and the orphan detection loop. Safe
// to call only once; subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) error {
	if p.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call", "node_id", p.nodeID)
		return nil
	}
	p.started = true

	slog.Info("starting worker pool", "node_id", p.nodeID, "worker_count", p.config.WorkerCount)

	for i := 0; i < p.config.WorkerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.nodeID, i)
		worker := NewWorker(workerID, p.nodeID, p.store, p.config, p.executor, p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanDetection(ctx)
	}()

	slog.Info("worker pool started")
	return nil
}

// Stop signals all workers to stop and waits for in-flight tasks to
// finish before returning.
func (p *WorkerPool) Stop() {
	slog.Info("stopping worker pool gracefully")

	active := p.getActiveTaskIDs()
	if len(active) > 0 {
		slog.Info("waiting for active tasks to complete", "count", len(active), "task_ids", active)
	}

	for _, worker := range p.workers {
		worker.Stop()
	}

	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()

	slog.Info("worker pool stopped gracefully")
}

// RegisterTask stores a cancel function so CancelTask can interrupt a
// running task from outside the worker loop (e.g. an operator API
// call).
func (p *WorkerPool) RegisterTask(taskID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeTasks[taskID] = cancel
}

// UnregisterTask removes the cancel function once a task's processing
// ends.
func (p *WorkerPool) UnregisterTask(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeTasks, taskID)
}

// CancelTask triggers context cancellation for a task on this node.
// Returns false if the task isn't running here.
func (p *WorkerPool) CancelTask(taskID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeTasks[taskID]; ok {
		cancel()
		return true
	}
	return false
}

// Health reports the pool's current state for the supplemented
// GET /api/queue/health endpoint.
func (p *WorkerPool) Health(ctx context.Context) *PoolHealth {
	activeCount, err := p.store.CountRunningTasks(ctx)
	storeHealthy := err == nil

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, w := range p.workers {
		stats := w.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	isHealthy := len(p.workers) > 0 && storeHealthy && activeCount <= p.config.MaxConcurrentTasks

	p.orphans.mu.Lock()
	lastScan := p.orphans.lastOrphanScan
	recovered := p.orphans.orphansRecovered
	p.orphans.mu.Unlock()

	var storeErr string
	if !storeHealthy {
		storeErr = fmt.Sprintf("active task count query failed: %v", err)
	}

	return &PoolHealth{
		IsHealthy:        isHealthy,
		StoreReachable:   storeHealthy,
		StoreError:       storeErr,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		ActiveTasks:      activeCount,
		MaxConcurrent:    p.config.MaxConcurrentTasks,
		WorkerStats:      workerStats,
		LastOrphanScan:   lastScan,
		OrphansRecovered: recovered,
	}
}

func (p *WorkerPool) getActiveTaskIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.activeTasks))
	for id := range p.activeTasks {
		ids = append(ids, id)
	}
	return ids
}

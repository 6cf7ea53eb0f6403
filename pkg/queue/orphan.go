package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relayhq/relayd/pkg/store"
)

// orphanState tracks orphan detection metrics (thread-safe).
type orphanState struct {
	mu               sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// runOrphanDetection periodically scans for tasks whose heartbeat has
// gone stale and marks them failed. Heartbeat and orphan sweep are
// two distinct mechanisms: the sweep is the backstop for a worker
// that died without updating status.
func (p *WorkerPool) runOrphanDetection(ctx context.Context) {
	ticker := time.NewTicker(p.config.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.detectAndRecoverOrphans(ctx); err != nil {
				slog.Error("orphan detection failed", "error", err)
			}
		}
	}
}

func (p *WorkerPool) detectAndRecoverOrphans(ctx context.Context) error {
	threshold := time.Now().Add(-p.config.OrphanThreshold)

	orphans, err := p.store.ListStaleRunningTasks(ctx, threshold)
	if err != nil {
		return err
	}

	if len(orphans) == 0 {
		p.orphans.mu.Lock()
		p.orphans.lastOrphanScan = time.Now()
		p.orphans.mu.Unlock()
		return nil
	}

	slog.Warn("detected orphaned tasks", "count", len(orphans))

	recovered := 0
	for _, task := range orphans {
		if err := p.recoverOrphanedTask(ctx, task); err != nil {
			slog.Error("failed to recover orphaned task", "task_id", task.ID, "error", err)
			continue
		}
		recovered++
	}

	p.orphans.mu.Lock()
	p.orphans.lastOrphanScan = time.Now()
	p.orphans.orphansRecovered += recovered
	p.orphans.mu.Unlock()

	return nil
}

func (p *WorkerPool) recoverOrphanedTask(ctx context.Context, task *store.Task) error {
	terminal := &store.TerminalFields{
		ErrorMessage: "orphaned: no heartbeat since " + task.LastInteractionAt.Format(time.RFC3339),
	}
	if err := p.store.UpdateTaskStatus(ctx, task.ID, store.TaskFailed, terminal); err != nil {
		return err
	}
	slog.Warn("orphaned task marked failed", "task_id", task.ID, "last_heartbeat", task.LastInteractionAt)
	return nil
}

// CleanupStartupOrphans marks as failed any task left running from a
// previous, uncleanly-terminated process. The daemon is single-
// instance, so on startup every running task is, by
// definition, an orphan of a prior run.
func CleanupStartupOrphans(ctx context.Context, st *store.Store) error {
	orphans, err := st.ListStaleRunningTasks(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}

	slog.Warn("found startup orphans from a previous run", "count", len(orphans))

	for _, task := range orphans {
		terminal := &store.TerminalFields{ErrorMessage: "orphaned: process restarted while task was running"}
		if err := st.UpdateTaskStatus(ctx, task.ID, store.TaskFailed, terminal); err != nil {
			slog.Error("failed to mark startup orphan", "task_id", task.ID, "error", err)
			continue
		}
		slog.Info("startup orphan recovered", "task_id", task.ID)
	}
	return nil
}

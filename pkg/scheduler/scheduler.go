// Package scheduler runs low-frequency background maintenance —
// idle session pruning and credential-expiry checks — outside the
// request/response path and the task worker pool.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/relayhq/relayd/pkg/credentials"
	"github.com/relayhq/relayd/pkg/store"
)

// Scheduler wraps a cron.Cron instance with the daemon's maintenance
// jobs already registered.
type Scheduler struct {
	cron                 *cron.Cron
	store                *store.Store
	creds                *credentials.Store
	sessionIdleThreshold time.Duration
}

// New returns a Scheduler. Sessions disconnected for longer than
// sessionIdleThreshold become eligible for pruning.
func New(st *store.Store, creds *credentials.Store, sessionIdleThreshold time.Duration) *Scheduler {
	return &Scheduler{
		cron:                 cron.New(),
		store:                st,
		creds:                creds,
		sessionIdleThreshold: sessionIdleThreshold,
	}
}

// Start registers and runs the maintenance jobs in the cron package's
// own goroutine; it returns once the jobs are registered, not once
// they've run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("@every 1h", func() { s.pruneIdleSessions(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 30m", s.checkCredentialExpiry); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop blocks until any in-flight job finishes and no further jobs
// fire.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) pruneIdleSessions(ctx context.Context) {
	n, err := s.store.PruneIdleSessions(ctx, s.sessionIdleThreshold)
	if err != nil {
		slog.Error("idle session prune failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("pruned idle sessions", "count", n)
	}
}

const credentialExpiryWarningWindow = 24 * time.Hour

func (s *Scheduler) checkCredentialExpiry() {
	status, err := s.creds.Status()
	if err != nil {
		slog.Error("credential status check failed", "error", err)
		return
	}
	if !status.Available {
		return
	}
	if !status.Valid {
		slog.Error("CLI credentials expired", "expires_at", status.ExpiresAt)
		return
	}
	if time.Until(status.ExpiresAt) < credentialExpiryWarningWindow {
		slog.Warn("CLI credentials expiring soon", "expires_at", status.ExpiresAt)
	}
}

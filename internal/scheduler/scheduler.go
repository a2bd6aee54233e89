// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/store"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. Jobs receive the context passed to Add and
// their errors are logged.
type Scheduler struct {
	cron *cron.Cron
}

// New returns a stopped scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Add registers job under spec, a standard cron expression or descriptor
// such as "@every 15m".
func (s *Scheduler) Add(ctx context.Context, name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		slog.Info("scheduled job done", "job", name, "duration", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("scheduling %s: invalid cron expression %q: %w", name, spec, err)
	}
	slog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits up to timeout for running jobs.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		slog.Warn("scheduled jobs still running at shutdown")
	}
}

// Refresh re-fetches the published collection so the cache stays mirrored.
func Refresh(c *catalog.Store) Job {
	return func(ctx context.Context) error {
		props, origin := c.Load(ctx)
		if origin != catalog.OriginRemote {
			return fmt.Errorf("refresh fell back to %s", origin)
		}
		slog.Info("properties refreshed", "count", len(props))
		return nil
	}
}

// PurgeTokens drops revocations of sessions that have expired anyway.
func PurgeTokens(db *sql.DB) Job {
	return func(ctx context.Context) error {
		n, err := store.PurgeRevokedTokens(ctx, db, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("purged revoked sessions", "count", n)
		}
		return nil
	}
}

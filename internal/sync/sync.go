// Package sync keeps the catalog's git checkout fresh in the background.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/conorfennell/lingodeck/internal/gitsource"
)

// SyncFunc brings dir up to date with url.
type SyncFunc func(ctx context.Context, url, dir string, log *slog.Logger) error

// Refresher pulls the catalog repository at a fixed interval. It never
// touches user state: the catalog provider picks up new files on its next
// load.
type Refresher struct {
	url      string
	dir      string
	interval time.Duration
	log      *slog.Logger
	sync     SyncFunc

	mu        stdsync.Mutex // serialises syncs of dir
	scheduler *gocron.Scheduler
}

// NewRefresher returns a Refresher for url checked out at dir. A zero
// interval syncs only once, at Start.
func NewRefresher(url, dir string, interval time.Duration, log *slog.Logger) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{
		url:      url,
		dir:      dir,
		interval: interval,
		log:      log,
		sync:     gitsource.Sync,
	}
}

// RunOnce performs a single sync. Failures are logged and returned.
// Concurrent calls, from the schedule or a manual trigger, run one at a time.
func (r *Refresher) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	if err := r.sync(ctx, r.url, r.dir, r.log); err != nil {
		r.log.ErrorContext(ctx, "catalog sync failed", "url", r.url, "error", err)
		return err
	}
	r.log.InfoContext(ctx, "catalog sync complete", "url", r.url, "dir", r.dir, "took", time.Since(start))
	return nil
}

// Start syncs once and then, when an interval is set, keeps syncing in the
// background until Stop. A failed first sync is not fatal.
func (r *Refresher) Start(ctx context.Context) error {
	_ = r.RunOnce(ctx)

	if r.interval <= 0 {
		return nil
	}

	r.scheduler = gocron.NewScheduler(time.UTC)
	r.scheduler.SingletonModeAll()
	_, err := r.scheduler.Every(r.interval).WaitForSchedule().Do(func() {
		_ = r.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule catalog sync: %w", err)
	}
	r.scheduler.StartAsync()
	r.log.InfoContext(ctx, "catalog sync scheduled", "interval", r.interval)
	return nil
}

// Stop halts background syncing.
func (r *Refresher) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

package retention

import (
	"context"
	"log/slog"
	"time"

	"listingforge/gateway/pkg/usage"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to keep listings.
	// 0 keeps listings forever.
	RetentionDays int

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler.
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 365,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention window on a listing store.
type Pruner struct {
	store     usage.ListingStore
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner for store.
func NewPruner(store usage.ListingStore, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "usage.retention"),
		now:    time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes listings older than the retention window and returns the
// number removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)

	deleted, err := p.store.Delete(ctx, &usage.Query{Before: &cutoff})
	if err != nil {
		return 0, &usage.RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
	}

	if deleted > 0 {
		p.logger.Info("pruned listings by age",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
			"cutoff_time", cutoff,
		)
	}

	return deleted, nil
}

// Start starts the scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the scheduler and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil when not scheduled.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

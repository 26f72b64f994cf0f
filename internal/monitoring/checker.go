package monitoring

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/model"
)

// Checker periodically collects a Snapshot and warns when the served data
// is stale or the latest runs failed.
type Checker struct {
	collector *Collector
	clock     clockwork.Clock
	interval  time.Duration
}

// NewChecker creates a background checker.
func NewChecker(collector *Collector, clock clockwork.Clock, interval time.Duration) *Checker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Checker{collector: collector, clock: clock, interval: interval}
}

// Run starts the check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting ingest health checker", zap.Duration("interval", c.interval))

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("ingest health checker stopped")
			return
		case <-ticker.Chan():
			c.Check(ctx, log)
		}
	}
}

// Check runs one collection and logs the outcome. It returns the snapshot,
// or nil when collection failed.
func (c *Checker) Check(ctx context.Context, log *zap.Logger) *Snapshot {
	snap, err := c.collector.Collect(ctx)
	if err != nil {
		log.Error("monitoring: failed to collect snapshot", zap.Error(err))
		return nil
	}

	if snap.Stale {
		log.Warn("monitoring: licence data is stale",
			zap.Float64("age_hours", snap.AgeHours),
			zap.Bool("has_run", snap.LatestRun != nil),
		)
	}
	if len(snap.RecentRuns) > 0 && snap.RecentRuns[0].Status == model.RunStatusFailed {
		log.Warn("monitoring: most recent ingest failed",
			zap.String("run_id", snap.RecentRuns[0].ID),
			zap.String("error", snap.RecentRuns[0].Error),
		)
	}
	log.Debug("monitoring: check complete",
		zap.Int("complete", snap.Complete),
		zap.Int("failed", snap.Failed),
	)
	return snap
}

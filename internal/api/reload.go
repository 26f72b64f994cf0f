package api

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/store"
)

// Reloader swaps a newer complete ingest into the Handler while the server
// runs.
type Reloader struct {
	store    store.Store
	handler  *Handler
	clock    clockwork.Clock
	interval time.Duration
	runID    string
}

// NewReloader creates a Reloader. runID is the run whose records the
// handler currently serves; empty means none.
func NewReloader(st store.Store, h *Handler, clock clockwork.Clock, interval time.Duration, runID string) *Reloader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reloader{store: st, handler: h, clock: clock, interval: interval, runID: runID}
}

// Run polls until ctx is cancelled. Failures are logged and retried on the
// next tick.
func (rl *Reloader) Run(ctx context.Context) {
	ticker := rl.clock.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := rl.Check(ctx); err != nil && ctx.Err() == nil {
				zap.L().Warn("api: record reload failed", zap.Error(err))
			}
		}
	}
}

// Check reloads once if the latest complete run differs from the one being
// served. It reports whether records were swapped.
func (rl *Reloader) Check(ctx context.Context) (bool, error) {
	latest, err := rl.store.LatestRun(ctx)
	if err != nil {
		return false, eris.Wrap(err, "api: latest run")
	}
	if latest == nil || latest.ID == rl.runID {
		return false, nil
	}

	records, err := rl.store.LoadRecords(ctx)
	if err != nil {
		return false, eris.Wrap(err, "api: load records")
	}
	rl.handler.SetRecords(records)
	zap.L().Info("api: records reloaded",
		zap.String("run_id", latest.ID),
		zap.Int("records", len(records)),
	)
	rl.runID = latest.ID
	return true, nil
}

// RunID returns the run currently served.
func (rl *Reloader) RunID() string {
	return rl.runID
}

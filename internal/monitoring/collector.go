package monitoring

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/store"
)

// Snapshot is a point-in-time view of ingest health.
type Snapshot struct {
	LatestRun   *model.Run  `json:"latest_run,omitempty"`
	RecentRuns  []model.Run `json:"recent_runs"`
	Failed      int         `json:"failed"`
	Complete    int         `json:"complete"`
	AgeHours    float64     `json:"age_hours"`
	Stale       bool        `json:"stale"`
	CollectedAt time.Time   `json:"collected_at"`
}

// Collector gathers run health from the store.
type Collector struct {
	store    store.Store
	clock    clockwork.Clock
	maxAge   time.Duration
	runLimit int
}

// NewCollector creates a Collector. Data older than maxAge is reported
// stale; zero disables the check.
func NewCollector(st store.Store, clock clockwork.Clock, maxAge time.Duration) *Collector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Collector{store: st, clock: clock, maxAge: maxAge, runLimit: 10}
}

// Collect builds a Snapshot.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	now := c.clock.Now().UTC()
	snap := &Snapshot{CollectedAt: now}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{Limit: c.runLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}
	snap.RecentRuns = runs
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.Complete++
		case model.RunStatusFailed:
			snap.Failed++
		}
	}

	latest, err := c.store.LatestRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: latest run")
	}
	snap.LatestRun = latest

	if latest == nil {
		snap.Stale = c.maxAge > 0
		return snap, nil
	}

	ref := latest.StartedAt
	if latest.FinishedAt != nil {
		ref = *latest.FinishedAt
	}
	age := now.Sub(ref)
	snap.AgeHours = age.Hours()
	snap.Stale = c.maxAge > 0 && age > c.maxAge
	return snap, nil
}

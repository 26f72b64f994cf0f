package monitoring

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/store"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IngestPages.Add(3)
	m.IngestRecords.WithLabelValues("kept").Add(10)
	m.APIRequests.WithLabelValues("/api/records", "200").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(m.IngestPages), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.IngestRecords.WithLabelValues("kept")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["rrf_map_ingest_pages_total"])
	assert.True(t, names["rrf_map_api_requests_total"])

	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestObserveGeoSourcesResets(t *testing.T) {
	m := NewMetricsForTesting()
	m.ObserveGeoSources(map[string]int{"TM2000": 5, "None": 2})
	m.ObserveGeoSources(map[string]int{"TM2000": 7})

	assert.InDelta(t, 7, testutil.ToFloat64(m.GeoSourceRecords.WithLabelValues("TM2000")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.GeoSourceRecords))
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	st := store.NewJSON(filepath.Join(t.TempDir(), "rrf.json"))
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func completeRun(t *testing.T, st store.Store, finished time.Time) *model.Run {
	t.Helper()
	run, err := st.CreateRun(context.Background())
	require.NoError(t, err)
	run.Status = model.RunStatusComplete
	run.FinishedAt = &finished
	require.NoError(t, st.UpdateRun(context.Background(), run))
	return run
}

func TestCollectorNoRuns(t *testing.T) {
	c := NewCollector(newStore(t), clockwork.NewFakeClock(), 24*time.Hour)
	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.LatestRun)
	assert.True(t, snap.Stale)
	assert.Empty(t, snap.RecentRuns)
}

func TestCollectorFreshAndStale(t *testing.T) {
	st := newStore(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	run := completeRun(t, st, clock.Now().Add(-2*time.Hour))

	c := NewCollector(st, clock, 24*time.Hour)
	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.LatestRun)
	assert.Equal(t, run.ID, snap.LatestRun.ID)
	assert.InDelta(t, 2, snap.AgeHours, 1e-9)
	assert.False(t, snap.Stale)
	assert.Equal(t, 1, snap.Complete)

	clock.Advance(48 * time.Hour)
	snap, err = c.Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Stale)
}

func TestCheckerWarnsOnFailedRun(t *testing.T) {
	st := newStore(t)
	clock := clockwork.NewFakeClock()
	completeRun(t, st, clock.Now())

	failed, err := st.CreateRun(context.Background())
	require.NoError(t, err)
	failed.Status = model.RunStatusFailed
	failed.Error = "HTTP 401"
	require.NoError(t, st.UpdateRun(context.Background(), failed))

	core, logs := observer.New(zap.DebugLevel)
	checker := NewChecker(NewCollector(st, clock, 0), clock, time.Minute)
	snap := checker.Check(context.Background(), zap.New(core))
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, logs.FilterMessage("monitoring: most recent ingest failed").Len())
	assert.Zero(t, logs.FilterMessage("monitoring: licence data is stale").Len())
}

func TestCheckerRunStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	checker := NewChecker(NewCollector(newStore(t), clock, time.Hour), clock, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Minute)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("checker did not stop")
	}
}

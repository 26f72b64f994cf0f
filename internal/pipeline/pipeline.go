// Package pipeline runs an ingest: fetch the register's licence pages,
// normalise them and replace the stored record set.
package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/monitoring"
	"github.com/sells-group/rrf-map/internal/normalize"
	"github.com/sells-group/rrf-map/internal/registry"
	"github.com/sells-group/rrf-map/internal/store"
)

// Fetcher retrieves raw licence records from the register.
type Fetcher interface {
	FetchAll(ctx context.Context, q registry.Query, onPage registry.PageFunc) ([]model.RawRecord, registry.Summary, error)
}

// Result describes a finished ingest.
type Result struct {
	Run     *model.Run
	Summary registry.Summary
	Stats   normalize.Stats
}

// Pipeline orchestrates fetch, normalise and save.
type Pipeline struct {
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	store      store.Store
	metrics    *monitoring.Metrics
	clock      clockwork.Clock
	rawOut     string
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for timestamps and phase durations.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRawOutput writes the fetched raw records to path before normalising.
func WithRawOutput(path string) Option {
	return func(p *Pipeline) { p.rawOut = path }
}

// New creates a Pipeline. metrics may be nil.
func New(f Fetcher, n *normalize.Normalizer, st store.Store, m *monitoring.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		normalizer: n,
		store:      st,
		metrics:    m,
		clock:      clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run performs a full ingest for q.
func (p *Pipeline) Run(ctx context.Context, q registry.Query) (*Result, error) {
	log := zap.L().With(zap.Int("licence_type", q.LicenceType), zap.String("order_by", q.OrderBy))
	log.Info("pipeline: starting ingest")

	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	res := &Result{Run: run}

	p.started()
	defer p.stopped()
	start := p.clock.Now()

	var raws []model.RawRecord
	err = p.trackPhase(log, "fetch", func() error {
		var ferr error
		raws, res.Summary, ferr = p.fetcher.FetchAll(ctx, q, p.onPage)
		return ferr
	})
	if err != nil {
		return res, p.fail(ctx, log, run, eris.Wrap(err, "pipeline: fetch"))
	}
	run.TotalItems = res.Summary.TotalItems
	run.TotalPages = res.Summary.TotalPages
	run.Fetched = len(raws)

	if p.rawOut != "" {
		if err := writeRaw(p.rawOut, raws); err != nil {
			return res, p.fail(ctx, log, run, err)
		}
		log.Info("pipeline: raw records written", zap.String("path", p.rawOut))
	}

	if err := p.finish(ctx, log, run, raws, res); err != nil {
		return res, err
	}

	if p.metrics != nil {
		p.metrics.IngestDuration.Observe(p.clock.Since(start).Seconds())
	}
	return res, nil
}

// Renormalize re-runs normalisation over previously fetched raw records and
// replaces the stored set, without contacting the register.
func (p *Pipeline) Renormalize(ctx context.Context, raws []model.RawRecord) (*Result, error) {
	log := zap.L().With(zap.Int("raw_records", len(raws)))
	log.Info("pipeline: starting offline normalisation")

	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	run.Fetched = len(raws)
	run.TotalItems = len(raws)

	res := &Result{Run: run, Summary: registry.Summary{TotalItems: len(raws), Fetched: len(raws)}}
	if err := p.finish(ctx, log, run, raws, res); err != nil {
		return res, err
	}
	return res, nil
}

// finish normalises raws, saves the records and marks the run complete.
func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, run *model.Run, raws []model.RawRecord, res *Result) error {
	p.setStatus(ctx, log, run, model.RunStatusNormalizing)

	var records []model.Record
	_ = p.trackPhase(log, "normalize", func() error {
		records, res.Stats = p.normalizer.Normalize(raws)
		return nil
	})
	run.Kept = res.Stats.Kept
	run.Dropped = res.Stats.Dropped
	run.GeoSources = res.Stats.GeoSources

	err := p.trackPhase(log, "save", func() error {
		return p.store.ReplaceRecords(ctx, run.ID, records)
	})
	if err != nil {
		return p.fail(ctx, log, run, eris.Wrap(err, "pipeline: save records"))
	}

	now := p.clock.Now().UTC()
	run.Status = model.RunStatusComplete
	run.FinishedAt = &now
	if err := p.store.UpdateRun(ctx, run); err != nil {
		return eris.Wrap(err, "pipeline: complete run")
	}

	if p.metrics != nil {
		p.metrics.IngestRecords.WithLabelValues("fetched").Add(float64(run.Fetched))
		p.metrics.IngestRecords.WithLabelValues("kept").Add(float64(run.Kept))
		p.metrics.IngestRecords.WithLabelValues("dropped").Add(float64(run.Dropped))
		p.metrics.IngestRuns.WithLabelValues(string(model.RunStatusComplete)).Inc()
		p.metrics.ObserveGeoSources(run.GeoSources)
		p.metrics.LastIngestTime.Set(float64(now.Unix()))
	}

	log.Info("pipeline: ingest complete",
		zap.Int("fetched", run.Fetched),
		zap.Int("kept", run.Kept),
		zap.Int("dropped", run.Dropped),
		zap.Any("geo_sources", run.GeoSources),
	)
	return nil
}

func (p *Pipeline) trackPhase(log *zap.Logger, name string, fn func() error) error {
	start := p.clock.Now()
	err := fn()
	duration := p.clock.Since(start).Milliseconds()

	if err != nil {
		log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return err
	}
	log.Info("pipeline: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}

func (p *Pipeline) setStatus(ctx context.Context, log *zap.Logger, run *model.Run, status model.RunStatus) {
	run.Status = status
	if err := p.store.UpdateRun(ctx, run); err != nil {
		log.Warn("pipeline: failed to update status", zap.Error(err))
	}
}

// fail records err on the run and returns it. The stored record set is
// left as it was.
func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, run *model.Run, err error) error {
	now := p.clock.Now().UTC()
	run.Status = model.RunStatusFailed
	run.Error = err.Error()
	run.FinishedAt = &now
	// The caller's context may already be cancelled.
	if uerr := p.store.UpdateRun(context.WithoutCancel(ctx), run); uerr != nil {
		log.Warn("pipeline: failed to record failure", zap.Error(uerr))
	}
	if p.metrics != nil {
		p.metrics.IngestRuns.WithLabelValues(string(model.RunStatusFailed)).Inc()
	}
	return err
}

func (p *Pipeline) onPage(int, *registry.Page) {
	if p.metrics != nil {
		p.metrics.IngestPages.Inc()
	}
}

func (p *Pipeline) started() {
	if p.metrics != nil {
		p.metrics.IngestRunning.Set(1)
	}
}

func (p *Pipeline) stopped() {
	if p.metrics != nil {
		p.metrics.IngestRunning.Set(0)
	}
}

func writeRaw(path string, raws []model.RawRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "pipeline: create raw output")
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raws); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "pipeline: write raw output")
	}
	return eris.Wrap(f.Close(), "pipeline: close raw output")
}

// Package store persists ingestion runs and the normalised licence set.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rrf-map/internal/config"
	"github.com/sells-group/rrf-map/internal/model"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines persistence for ingestion runs and licence records.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	UpdateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	// LatestRun returns the most recent complete run, or nil when none exists.
	LatestRun(ctx context.Context) (*model.Run, error)

	// Records. ReplaceRecords swaps the whole set atomically; LoadRecords
	// returns it in save order.
	ReplaceRecords(ctx context.Context, runID string, records []model.Record) error
	LoadRecords(ctx context.Context) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "json":
		return NewJSON(cfg.JSONPath), nil
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

const defaultListLimit = 100

func limitOrDefault(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// runStats is the JSON payload stored alongside each run row.
type runStats struct {
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	Fetched    int            `json:"fetched"`
	Kept       int            `json:"kept"`
	Dropped    int            `json:"dropped"`
	GeoSources map[string]int `json:"geo_sources,omitempty"`
}

func statsOf(r *model.Run) ([]byte, error) {
	b, err := json.Marshal(runStats{
		TotalItems: r.TotalItems,
		TotalPages: r.TotalPages,
		Fetched:    r.Fetched,
		Kept:       r.Kept,
		Dropped:    r.Dropped,
		GeoSources: r.GeoSources,
	})
	return b, eris.Wrap(err, "marshal run stats")
}

func applyStats(r *model.Run, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var st runStats
	if err := json.Unmarshal(data, &st); err != nil {
		return eris.Wrap(err, "unmarshal run stats")
	}
	r.TotalItems = st.TotalItems
	r.TotalPages = st.TotalPages
	r.Fetched = st.Fetched
	r.Kept = st.Kept
	r.Dropped = st.Dropped
	r.GeoSources = st.GeoSources
	return nil
}

// recordColumns are the columns of the licences table in both SQL stores.
var recordColumns = []string{"seq", "id", "run_id", "carrier_key", "band_code", "lat", "lon", "data"}

func recordRows(runID string, records []model.Record) ([][]any, error) {
	rows := make([][]any, len(records))
	for i := range records {
		rec := &records[i]
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "marshal record %s", rec.ID)
		}
		rows[i] = []any{i, rec.ID, runID, rec.CarrierKey, rec.BandCode, rec.Lat, rec.Lon, data}
	}
	return rows, nil
}

func decodeRecord(data []byte) (model.Record, error) {
	var rec model.Record
	err := json.Unmarshal(data, &rec)
	return rec, eris.Wrap(err, "unmarshal record")
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rrf-map/internal/db"
	"github.com/sells-group/rrf-map/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const licencesTable = "licences"

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL DEFAULT 'fetching',
	stats       JSONB,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS licences (
	seq         INTEGER PRIMARY KEY,
	id          TEXT NOT NULL,
	run_id      TEXT NOT NULL,
	carrier_key TEXT NOT NULL,
	band_code   TEXT NOT NULL,
	lat         DOUBLE PRECISION,
	lon         DOUBLE PRECISION,
	data        JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status_started ON runs(status, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_licences_carrier ON licences(carrier_key);
CREATE INDEX IF NOT EXISTS idx_licences_band ON licences(band_code);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusFetching,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *model.Run) error {
	stats, err := statsOf(run)
	if err != nil {
		return eris.Wrap(err, "postgres: update run")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, error = $3, finished_at = $4 WHERE id = $5`,
		string(run.Status), stats, run.Error, run.FinishedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", run.ID)
	}
	return nil
}

const postgresRunColumns = `id, status, stats, error, started_at, finished_at`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresRunColumns+` FROM runs WHERE id = $1`, runID)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	var rows pgx.Rows
	var err error
	if filter.Status != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT `+postgresRunColumns+` FROM runs WHERE status = $1 ORDER BY started_at DESC LIMIT $2`,
			string(filter.Status), limitOrDefault(filter.Limit))
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+postgresRunColumns+` FROM runs ORDER BY started_at DESC LIMIT $1`,
			limitOrDefault(filter.Limit))
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list runs")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*model.Run, error) {
	runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete, Limit: 1})
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *PostgresStore) ReplaceRecords(ctx context.Context, runID string, records []model.Record) error {
	rows, err := recordRows(runID, records)
	if err != nil {
		return eris.Wrap(err, "postgres: replace records")
	}
	_, err = db.ReplaceAll(ctx, s.pool, licencesTable, recordColumns, rows)
	return eris.Wrap(err, "postgres: replace records")
}

func (s *PostgresStore) LoadRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM licences ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load records")
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: load records")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: load records iterate")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var status string
	var stats []byte
	var finished *time.Time

	if err := row.Scan(&r.ID, &status, &stats, &r.Error, &r.StartedAt, &finished); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	r.FinishedAt = finished
	if err := applyStats(&r, stats); err != nil {
		return nil, err
	}
	return &r, nil
}

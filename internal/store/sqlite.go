package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rrf-map/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'fetching',
	stats       TEXT,
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS licences (
	seq         INTEGER PRIMARY KEY,
	id          TEXT NOT NULL,
	run_id      TEXT NOT NULL,
	carrier_key TEXT NOT NULL,
	band_code   TEXT NOT NULL,
	lat         REAL,
	lon         REAL,
	data        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_licences_carrier ON licences(carrier_key);
CREATE INDEX IF NOT EXISTS idx_licences_band ON licences(band_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusFetching,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *model.Run) error {
	stats, err := statsOf(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: update run")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), string(stats), run.Error, nullTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", run.ID)
	}
	return checkRowsAffected(res, run.ID)
}

const sqliteRunColumns = `id, status, stats, error, started_at, finished_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM runs WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limitOrDefault(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.Run, error) {
	runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete, Limit: 1})
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *SQLiteStore) ReplaceRecords(ctx context.Context, runID string, records []model.Record) error {
	rows, err := recordRows(runID, records)
	if err != nil {
		return eris.Wrap(err, "sqlite: replace records")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM licences`); err != nil {
		return eris.Wrap(err, "sqlite: clear licences")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO licences (seq, id, run_id, carrier_key, band_code, lat, lon, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rows {
		row[5], row[6] = nullFloat(row[5]), nullFloat(row[6])
		// TEXT column; the driver would otherwise store the JSON as a blob.
		row[7] = string(row[7].([]byte))
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert licence %v", row[1])
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit records")
}

func (s *SQLiteStore) LoadRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM licences ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load records")
	}
	defer rows.Close() //nolint:errcheck

	records := []model.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: load records")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: load records iterate")
}

// helpers

func nullFloat(v any) sql.NullFloat64 {
	if f, ok := v.(*float64); ok && f != nil {
		return sql.NullFloat64{Float64: *f, Valid: true}
	}
	return sql.NullFloat64{}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var status string
	var stats sql.NullString
	var finished sql.NullTime

	err := row.Scan(&r.ID, &status, &stats, &r.Error, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Status = model.RunStatus(status)
	r.StartedAt = r.StartedAt.UTC()
	if finished.Valid {
		t := finished.Time.UTC()
		r.FinishedAt = &t
	}
	if stats.Valid {
		if err := applyStats(&r, []byte(stats.String)); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
	}
	return &r, nil
}

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rrf-map/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

var runCols = []string{"id", "status", "stats", "error", "started_at", "finished_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO runs \(id, status, started_at\)`).
		WithArgs(pgxmock.AnyArg(), "fetching", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFetching, run.Status)
	assert.Len(t, run.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`UPDATE runs SET status = \$1`).
		WithArgs("complete", pgxmock.AnyArg(), "", pgxmock.AnyArg(), "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRun(context.Background(), &model.Run{ID: "gone", Status: model.RunStatusComplete})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(time.Minute)

	mock.ExpectQuery(`SELECT id, status, stats, error, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runCols).
			AddRow("run-1", "complete", []byte(`{"kept": 12, "geo_sources": {"TM2000": 12}}`), "", started, &finished))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 12, run.Kept)
	assert.Equal(t, 12, run.GeoSources["TM2000"])
	require.NotNil(t, run.FinishedAt)
	assert.True(t, finished.Equal(*run.FinishedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT .* FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRun_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM runs WHERE status = \$1 ORDER BY started_at DESC LIMIT \$2`).
		WithArgs("complete", 1).
		WillReturnRows(pgxmock.NewRows(runCols))

	run, err := s.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM runs ORDER BY started_at DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows(runCols).
			AddRow("b", "failed", nil, "HTTP 401", now, nil).
			AddRow("a", "complete", []byte(`{}`), "", now.Add(-time.Hour), nil))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "HTTP 401", runs[0].Error)
	assert.Nil(t, runs[0].FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "licences"`).WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"licences"}, recordColumns).WillReturnResult(2)
	mock.ExpectCommit()

	require.NoError(t, s.ReplaceRecords(context.Background(), "run-1", sampleRecords()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceRecords_BeginError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin().WillReturnError(fmt.Errorf("connection refused"))

	err := s.ReplaceRecords(context.Background(), "run-1", sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: replace records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT data FROM licences ORDER BY seq`).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"id":"7","carrierKey":"one","bandCode":"n78","geoSource":"TM2000","lat":-36.8,"lon":174.7}`)))

	records, err := s.LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "one", records[0].CarrierKey)
	assert.Equal(t, model.GeoProjected, records[0].GeoSource.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

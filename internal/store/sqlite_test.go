package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rrf-map/internal/config"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newTestSQLiteStore(t))
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ReplaceEmptySet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.ReplaceRecords(ctx, "r1", sampleRecords()))
	require.NoError(t, st.ReplaceRecords(ctx, "r2", nil))

	records, err := st.LoadRecords(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSQLite_IndexedColumns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.ReplaceRecords(ctx, "r1", sampleRecords()))

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM licences WHERE carrier_key = ? AND lat IS NOT NULL`, "spark").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenSQLite(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
}

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	st := NewJSON(filepath.Join(t.TempDir(), "data", "rrf_licences.json"))
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestJSONStore(t *testing.T) {
	exerciseStore(t, newTestJSONStore(t))
}

func TestJSON_FileIsPlainArray(t *testing.T) {
	st := newTestJSONStore(t)
	require.NoError(t, st.ReplaceRecords(context.Background(), "r1", sampleRecords()))

	data, err := os.ReadFile(st.Path())
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "spark", docs[0]["carrierKey"])
	assert.Equal(t, "D2000", docs[0]["geoSource"])
	assert.Nil(t, docs[1]["lat"])
	assert.Contains(t, string(data), "\n  {")

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(st.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestJSON_EmptySetWritesEmptyArray(t *testing.T) {
	st := newTestJSONStore(t)
	require.NoError(t, st.ReplaceRecords(context.Background(), "r1", nil))

	data, err := os.ReadFile(st.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestJSON_CorruptFile(t *testing.T) {
	st := newTestJSONStore(t)
	require.NoError(t, os.WriteFile(st.Path(), []byte("{not json"), 0o600))

	_, err := st.LoadRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json: load records")
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rrf-map/internal/model"
)

// JSONStore keeps the normalised records as a pretty-printed JSON array,
// the format the map page loads directly, with runs in a sidecar file.
type JSONStore struct {
	mu       sync.Mutex
	path     string
	runsPath string
}

// NewJSON returns a JSONStore writing records to path and runs to
// path + ".runs.json".
func NewJSON(path string) *JSONStore {
	return &JSONStore{path: path, runsPath: path + ".runs.json"}
}

// Path returns the records file path.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Migrate(_ context.Context) error {
	dir := filepath.Dir(s.path)
	return eris.Wrap(os.MkdirAll(dir, 0o755), "json: create dir")
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) CreateRun(_ context.Context) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readRuns()
	if err != nil {
		return nil, err
	}
	run := model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusFetching,
		StartedAt: time.Now().UTC(),
	}
	runs = append(runs, run)
	if err := writeJSONFile(s.runsPath, runs); err != nil {
		return nil, eris.Wrap(err, "json: create run")
	}
	return &run, nil
}

func (s *JSONStore) UpdateRun(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readRuns()
	if err != nil {
		return err
	}
	for i := range runs {
		if runs[i].ID == run.ID {
			runs[i] = *run
			return eris.Wrap(writeJSONFile(s.runsPath, runs), "json: update run")
		}
	}
	return eris.Wrapf(ErrNotFound, "json: run %s", run.ID)
}

func (s *JSONStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readRuns()
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].ID == runID {
			return &runs[i], nil
		}
	}
	return nil, eris.Wrapf(ErrNotFound, "json: get run %s", runID)
}

func (s *JSONStore) ListRuns(_ context.Context, filter RunFilter) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readRuns()
	if err != nil {
		return nil, err
	}

	// Newest first; the file is append-ordered.
	var out []model.Run
	for i := len(runs) - 1; i >= 0; i-- {
		if filter.Status != "" && runs[i].Status != filter.Status {
			continue
		}
		out = append(out, runs[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit := limitOrDefault(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *JSONStore) LatestRun(ctx context.Context) (*model.Run, error) {
	runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete, Limit: 1})
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *JSONStore) ReplaceRecords(_ context.Context, _ string, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = []model.Record{}
	}
	return eris.Wrap(writeJSONFile(s.path, records), "json: replace records")
}

func (s *JSONStore) LoadRecords(_ context.Context) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []model.Record{}
	if err := readJSONFile(s.path, &records); err != nil {
		return nil, eris.Wrap(err, "json: load records")
	}
	return records, nil
}

func (s *JSONStore) readRuns() ([]model.Run, error) {
	var runs []model.Run
	if err := readJSONFile(s.runsPath, &runs); err != nil {
		return nil, eris.Wrap(err, "json: read runs")
	}
	return runs, nil
}

// readJSONFile decodes path into v. A missing file leaves v untouched.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSONFile writes v to a temp file in the target directory and
// renames it over path.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rrf-map/internal/resilience"
)

type fakeAPI struct {
	mu       sync.Mutex
	pages    int
	items    int
	perPage  int
	requests []payload
	headers  []http.Header
	failNext map[int]int
	status   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p payload
	_ = json.NewDecoder(r.Body).Decode(&p)

	f.mu.Lock()
	f.requests = append(f.requests, p)
	f.headers = append(f.headers, r.Header.Clone())
	status := f.status
	if f.failNext[p.Page] > 0 {
		f.failNext[p.Page]--
		status = http.StatusBadGateway
	}
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "upstream said no", status)
		return
	}

	results := make([]map[string]any, 0, f.perPage)
	for i := 0; i < f.perPage; i++ {
		results = append(results, map[string]any{
			"id":       fmt.Sprintf("%d-%d", p.Page, i),
			"licensee": "Spark New Zealand",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"totalPages": f.pages,
		"totalItems": f.items,
		"results":    results,
	})
}

func (f *fakeAPI) seen() ([]payload, []http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]payload(nil), f.requests...), append([]http.Header(nil), f.headers...)
}

func (f *fakeAPI) count() int {
	reqs, _ := f.seen()
	return len(reqs)
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func newTestClient(url string) *Client {
	return NewClient(Options{APIURL: url, UserAgent: "test-agent", Retry: fastRetry()})
}

func TestFetchAllPagesInOrder(t *testing.T) {
	api := &fakeAPI{pages: 3, items: 6, perPage: 2}
	srv := httptest.NewServer(api)
	defer srv.Close()

	q := DefaultQuery()
	q.PageSize = 2

	var seen []int
	raws, sum, err := newTestClient(srv.URL).FetchAll(context.Background(), q, func(page int, _ *Page) {
		seen = append(seen, page)
	})
	require.NoError(t, err)

	assert.Len(t, raws, 6)
	assert.Equal(t, "1-0", raws[0].ID.String())
	assert.Equal(t, "3-1", raws[5].ID.String())
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, Summary{TotalPages: 3, TotalItems: 6, Fetched: 6, Pages: 3}, sum)

	reqs, headers := api.seen()
	require.Len(t, reqs, 3)
	first := reqs[0]
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.PageSize)
	assert.Equal(t, []int{178}, first.LicenceType)
	assert.Equal(t, "id desc", first.OrderBy)
	assert.Equal(t, "T", first.DisplayGeorefType)
	assert.Equal(t, "false", first.MapVisible)
	assert.False(t, first.Suppressed)

	h := headers[0]
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "https://rrf.rsm.govt.nz", h.Get("Origin"))
	assert.Equal(t, "test-agent", h.Get("User-Agent"))
	assert.True(t, strings.HasPrefix(h.Get("Accept"), "application/json"))
}

func TestFetchAllMaxPages(t *testing.T) {
	api := &fakeAPI{pages: 10, items: 10, perPage: 1}
	srv := httptest.NewServer(api)
	defer srv.Close()

	q := DefaultQuery()
	q.MaxPages = 2
	raws, sum, err := newTestClient(srv.URL).FetchAll(context.Background(), q, nil)
	require.NoError(t, err)
	assert.Len(t, raws, 2)
	assert.Equal(t, 10, sum.TotalPages)
	assert.Equal(t, 2, sum.Pages)
	assert.Equal(t, 2, api.count())
}

func TestFetchAllZeroTotalPagesReadsFirstOnly(t *testing.T) {
	api := &fakeAPI{pages: 0, items: 0, perPage: 0}
	srv := httptest.NewServer(api)
	defer srv.Close()

	raws, _, err := newTestClient(srv.URL).FetchAll(context.Background(), DefaultQuery(), nil)
	require.NoError(t, err)
	assert.Empty(t, raws)
	assert.Equal(t, 1, api.count())
}

func TestFetchPageRetriesTransientFailure(t *testing.T) {
	api := &fakeAPI{pages: 1, items: 1, perPage: 1, failNext: map[int]int{1: 2}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	p, err := newTestClient(srv.URL).FetchPage(context.Background(), DefaultQuery(), 1)
	require.NoError(t, err)
	assert.Len(t, p.Results, 1)
	assert.Equal(t, 3, api.count())
}

func TestFetchPageUnauthorizedFailsFast(t *testing.T) {
	api := &fakeAPI{status: http.StatusUnauthorized}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).FetchAll(context.Background(), DefaultQuery(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, api.count())

	var se *resilience.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestFetchPageExhaustsRetries(t *testing.T) {
	api := &fakeAPI{status: http.StatusInternalServerError}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), DefaultQuery(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Equal(t, 3, api.count())
}

func TestFetchAllCancelledDuringSleep(t *testing.T) {
	api := &fakeAPI{pages: 5, items: 5, perPage: 1}
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	q := DefaultQuery()
	q.Sleep = time.Hour
	_, _, err := newTestClient(srv.URL).FetchAll(ctx, q, nil)
	require.Error(t, err)
	assert.Equal(t, 1, api.count())
}

func TestReadRaw(t *testing.T) {
	raws, err := ReadRaw(strings.NewReader(`[{"id": 1, "refFrequency": "758.5"}, {"id": "2"}]`))
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.InDelta(t, 758.5, raws[0].RefFrequency.Value, 1e-9)

	_, err = ReadRaw(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

package geocode

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sells-group/rrf-map/internal/monitoring"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// normalised query and limit.
type CachedGeocoder struct {
	inner   Geocoder
	metrics *monitoring.Metrics

	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key    string
	places []Place
}

// NewCachedGeocoder creates a cache decorator holding at most maxEntries
// queries. metrics may be nil.
func NewCachedGeocoder(inner Geocoder, maxEntries int, metrics *monitoring.Metrics) *CachedGeocoder {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// cacheKey folds case and whitespace so trivially different spellings of a
// query share an entry.
func cacheKey(q string, limit int) string {
	return fmt.Sprintf("%d|%s", limit, strings.Join(strings.Fields(strings.ToLower(q)), " "))
}

// Search serves from the cache when possible. Errors and empty results are
// not cached so they can be retried.
func (c *CachedGeocoder) Search(ctx context.Context, q string, limit int) ([]Place, error) {
	key := cacheKey(q, limit)
	if places, ok := c.get(key); ok {
		c.observe("hit")
		return places, nil
	}
	c.observe("miss")

	places, err := c.inner.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	if len(places) > 0 {
		c.put(key, places)
	}
	return places, nil
}

// Len reports the number of cached queries.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedGeocoder) get(key string) ([]Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return clonePlaces(el.Value.(*cacheEntry).places), true
}

func (c *CachedGeocoder) put(key string, places []Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).places = clonePlaces(places)
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, places: clonePlaces(places)})

	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *CachedGeocoder) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.GeocodeCache.WithLabelValues(result).Inc()
}

func clonePlaces(p []Place) []Place {
	return append([]Place(nil), p...)
}

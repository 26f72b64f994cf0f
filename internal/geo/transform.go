package geo

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Transform converts a coordinate from a source reference system to WGS84.
// Input and output follow x/y order: easting or longitude first.
type Transform interface {
	Forward(c geom.Coord) (geom.Coord, error)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(c geom.Coord) (geom.Coord, error)

// Forward implements Transform.
func (f TransformFunc) Forward(c geom.Coord) (geom.Coord, error) { return f(c) }

// Registry maps source-system tags to transforms. Lookups are
// case-insensitive. A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Transform
	order []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Transform)}
}

// DefaultRegistry returns a Registry with the NZTM2000 transform registered
// under "TM2000" when enableTM2000 is true.
func DefaultRegistry(enableTM2000 bool) *Registry {
	r := NewRegistry()
	if enableTM2000 {
		_ = r.Register("TM2000", NZTM2000())
	}
	return r
}

// Register adds a transform for tag. Registering a tag twice is an error.
func (r *Registry) Register(tag string, t Transform) error {
	key := strings.ToUpper(strings.TrimSpace(tag))
	if key == "" {
		return eris.New("geo: empty transform tag")
	}
	if t == nil {
		return eris.Errorf("geo: nil transform for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[key]; ok {
		return eris.Errorf("geo: transform %s already registered", key)
	}
	r.items[key] = t
	r.order = append(r.order, key)
	return nil
}

// Get returns the transform for tag, if any.
func (r *Registry) Get(tag string) (Transform, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[strings.ToUpper(tag)]
	return t, ok
}

// Tags returns registered tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

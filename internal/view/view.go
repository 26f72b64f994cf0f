// Package view holds the interactive map state: one immutable record set,
// the current facet selections, and the derived marker, cluster and
// recent-licence views recomputed wholesale on every change.
package view

import (
	"sort"
	"sync"

	"github.com/sells-group/rrf-map/internal/cluster"
	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/model"
)

// DefaultRecentLimit is the length of the recently commenced list.
const DefaultRecentLimit = 10

// Options tunes the derived views.
type Options struct {
	RadiusMeters float64
	OffsetMeters float64
	RecentLimit  int
}

// DefaultOptions returns the map defaults.
func DefaultOptions() Options {
	return Options{
		RadiusMeters: cluster.DefaultRadiusMeters,
		OffsetMeters: cluster.DefaultOffsetMeters,
		RecentLimit:  DefaultRecentLimit,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = d.RadiusMeters
	}
	if o.OffsetMeters <= 0 {
		o.OffsetMeters = d.OffsetMeters
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = d.RecentLimit
	}
	return o
}

// Snapshot is everything derived from one filter state.
type Snapshot struct {
	Availability   facet.Availability
	CarrierOptions []facet.Option
	BandOptions    []facet.Option
	BaseFiltered   []*model.Record
	Filtered       []*model.Record
	Groups         []*cluster.MarkerGroup
	Clusters       []cluster.Cluster
	Placements     []cluster.Placement
	Recent         []*model.Record
}

// Compute derives a Snapshot from records and st. It does not mutate its
// inputs and is safe to call concurrently.
func Compute(records []*model.Record, engine *facet.Engine, st facet.State, opts Options) *Snapshot {
	opts = opts.withDefaults()

	base := facet.BaseFiltered(records, st.Base)
	av := engine.Availability(base, st)
	filtered := facet.FilterFacets(base, st)
	groups := cluster.Group(filtered)

	return &Snapshot{
		Availability:   av,
		CarrierOptions: engine.CarrierOptions(records, av, st.Carriers),
		BandOptions:    engine.BandOptions(records, av, st.Bands),
		BaseFiltered:   base,
		Filtered:       filtered,
		Groups:         groups,
		Clusters:       cluster.Build(groups, opts.RadiusMeters),
		Placements:     cluster.Place(groups, opts.OffsetMeters),
		Recent:         Recent(filtered, opts.RecentLimit),
	}
}

// View is a stateful map session. All methods are safe for concurrent use.
type View struct {
	mu      sync.RWMutex
	records []*model.Record
	engine  *facet.Engine
	opts    Options
	state   facet.State
	snap    *Snapshot
}

// New creates a View over records with every facet in "all" mode.
func New(records []model.Record, engine *facet.Engine, opts Options) *View {
	ptrs := make([]*model.Record, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	v := &View{
		records: ptrs,
		engine:  engine,
		opts:    opts.withDefaults(),
		state:   facet.State{Carriers: facet.NewSelection(), Bands: facet.NewSelection()},
	}
	v.snap = Compute(v.records, v.engine, v.state, v.opts)
	return v
}

// Records returns the full record set.
func (v *View) Records() []*model.Record {
	return v.records
}

// Snapshot returns the most recently computed Snapshot.
func (v *View) Snapshot() *Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}

// State returns a copy of the current filter state.
func (v *View) State() facet.State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Clone()
}

// Refresh recomputes the Snapshot from the current state.
func (v *View) Refresh() *Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshLocked()
}

func (v *View) refreshLocked() *Snapshot {
	v.snap = Compute(v.records, v.engine, v.state, v.opts)
	return v.snap
}

// ToggleCarrier toggles one carrier button and refreshes.
func (v *View) ToggleCarrier(key string) *Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Carriers.Toggle(key)
	return v.refreshLocked()
}

// ToggleBand toggles one band button and refreshes.
func (v *View) ToggleBand(code string) *Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Bands.Toggle(code)
	return v.refreshLocked()
}

// SetBase replaces the base filter and refreshes.
func (v *View) SetBase(base facet.BaseFilter) *Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Base = base
	return v.refreshLocked()
}

// Recent returns up to n records ordered by commencement date, newest
// first. Undated records sort after dated ones; ties keep input order.
func Recent(records []*model.Record, n int) []*model.Record {
	out := make([]*model.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CommencementDate, out[j].CommencementDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// District is one selectable district.
type District struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Districts returns the distinct district codes among records with their
// display names, sorted by name.
func Districts(records []*model.Record) []District {
	seen := make(map[string]bool)
	var out []District
	for _, r := range records {
		for _, c := range r.DistrictCodes {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, District{Code: c, Name: model.DistrictName(c)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return out
}

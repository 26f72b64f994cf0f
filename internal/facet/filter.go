package facet

import (
	"strings"

	"github.com/sells-group/rrf-map/internal/model"
)

// BaseFilter holds the non-facet attribute filters. Zero values are inactive.
type BaseFilter struct {
	Location         string
	District         string
	CommencementFrom *model.Date
	CommencementTo   *model.Date
	ExpiryFrom       *model.Date
	ExpiryTo         *model.Date
}

// Active reports whether any base filter is set.
func (f BaseFilter) Active() bool {
	return strings.TrimSpace(f.Location) != "" || f.District != "" ||
		f.CommencementFrom != nil || f.CommencementTo != nil ||
		f.ExpiryFrom != nil || f.ExpiryTo != nil
}

// Match reports whether r passes every active base filter. A record with no
// date fails any active range on that date.
func (f BaseFilter) Match(r *model.Record) bool {
	if q := strings.TrimSpace(f.Location); q != "" {
		if !strings.Contains(strings.ToLower(r.Location), strings.ToLower(q)) {
			return false
		}
	}
	if f.District != "" && !containsString(r.DistrictCodes, f.District) {
		return false
	}
	if !inRange(r.CommencementDate, f.CommencementFrom, f.CommencementTo) {
		return false
	}
	return inRange(r.ExpiryDate, f.ExpiryFrom, f.ExpiryTo)
}

func inRange(d, from, to *model.Date) bool {
	if from == nil && to == nil {
		return true
	}
	if d == nil {
		return false
	}
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// State is the complete filter state of one map view.
type State struct {
	Carriers Selection
	Bands    Selection
	Base     BaseFilter
}

// Clone returns a copy whose selections can be toggled independently.
func (s State) Clone() State {
	return State{Carriers: s.Carriers.Clone(), Bands: s.Bands.Clone(), Base: s.Base}
}

// AllowsFacets reports whether r passes both facet selections.
func (s State) AllowsFacets(r *model.Record) bool {
	return s.Carriers.Allows(r.CarrierKey) && s.Bands.Allows(r.BandCode)
}

// BaseFiltered returns the records passing the base filter, in input order.
func BaseFiltered(records []*model.Record, base BaseFilter) []*model.Record {
	if !base.Active() {
		out := make([]*model.Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]*model.Record, 0, len(records))
	for _, r := range records {
		if base.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Filter returns the records passing the base filter and both facets.
func Filter(records []*model.Record, st State) []*model.Record {
	out := make([]*model.Record, 0, len(records))
	for _, r := range records {
		if st.Base.Match(r) && st.AllowsFacets(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterFacets applies only the facet selections to already base-filtered records.
func FilterFacets(baseFiltered []*model.Record, st State) []*model.Record {
	out := make([]*model.Record, 0, len(baseFiltered))
	for _, r := range baseFiltered {
		if st.AllowsFacets(r) {
			out = append(out, r)
		}
	}
	return out
}

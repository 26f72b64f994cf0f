package facet

import (
	"sort"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/model"
)

// Availability holds the facet keys that would still yield results.
type Availability struct {
	// Carriers present among base-filtered records allowed by the band selection.
	Carriers map[string]bool
	// Bands present among base-filtered records allowed by the carrier selection.
	Bands map[string]bool
}

// Option describes one facet button.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	// Row groups carrier buttons: 0 primary, 1 secondary, 2 other.
	Row      int  `json:"row"`
	Enabled  bool `json:"enabled"`
	Selected bool `json:"selected"`
	// Pressed is true for every option while the selection is in "all" mode.
	Pressed bool `json:"pressed"`
}

// Engine computes facet options for a fixed band table and carrier
// exclusion list.
type Engine struct {
	bands    classify.BandTable
	excluded map[string]bool
}

// NewEngine returns an Engine. Excluded carriers are never offered as a
// facet option nor counted as available; their records still pass the
// carrier facet while it is in "all" mode.
func NewEngine(bands classify.BandTable, excludedCarriers []string) *Engine {
	ex := make(map[string]bool, len(excludedCarriers))
	for _, k := range excludedCarriers {
		ex[k] = true
	}
	return &Engine{bands: bands, excluded: ex}
}

// Excluded reports whether a carrier key is excluded from the facet.
func (e *Engine) Excluded(key string) bool { return e.excluded[key] }

// Availability computes both availability sets in one pass over the
// base-filtered records. Each facet is evaluated against the other
// facet's selection only, so a selected option never hides its siblings.
func (e *Engine) Availability(baseFiltered []*model.Record, st State) Availability {
	av := Availability{Carriers: make(map[string]bool), Bands: make(map[string]bool)}
	for _, r := range baseFiltered {
		if st.Bands.Allows(r.BandCode) && !e.excluded[r.CarrierKey] {
			av.Carriers[r.CarrierKey] = true
		}
		if st.Carriers.Allows(r.CarrierKey) {
			av.Bands[r.BandCode] = true
		}
	}
	return av
}

// CarrierOptions enumerates carrier buttons for the carriers present in the
// full dataset: the primary row, the secondary row, then any others by label.
func (e *Engine) CarrierOptions(all []*model.Record, av Availability, sel Selection) []Option {
	present := make(map[string]bool)
	for _, r := range all {
		if !e.excluded[r.CarrierKey] {
			present[r.CarrierKey] = true
		}
	}

	var out []Option
	placed := make(map[string]bool)
	for row, keys := range [][]string{classify.PrimaryCarriers, classify.SecondaryCarriers} {
		for _, k := range keys {
			if present[k] {
				out = append(out, e.carrierOption(k, row, av, sel))
				placed[k] = true
			}
		}
	}

	var rest []Option
	for k := range present {
		if !placed[k] {
			rest = append(rest, e.carrierOption(k, 2, av, sel))
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Label != rest[j].Label {
			return rest[i].Label < rest[j].Label
		}
		return rest[i].Key < rest[j].Key
	})
	return append(out, rest...)
}

func (e *Engine) carrierOption(key string, row int, av Availability, sel Selection) Option {
	meta := classify.Meta(key)
	return Option{
		Key:      key,
		Label:    meta.Label,
		Color:    meta.Color,
		Row:      row,
		Enabled:  av.Carriers[key] || sel.Has(key),
		Selected: sel.Has(key),
		Pressed:  sel.All() || sel.Has(key),
	}
}

// BandOptions enumerates band buttons for bands present in the full
// dataset, in table order, then "unknown" and "other".
func (e *Engine) BandOptions(all []*model.Record, av Availability, sel Selection) []Option {
	present := make(map[string]bool)
	for _, r := range all {
		present[r.BandCode] = true
	}

	codes := make([]string, 0, len(e.bands)+2)
	for _, b := range e.bands {
		if present[b.Code] {
			codes = append(codes, b.Code)
		}
	}
	for _, c := range []string{classify.BandUnknown, classify.BandOther} {
		if present[c] {
			codes = append(codes, c)
		}
	}

	out := make([]Option, 0, len(codes))
	for _, c := range codes {
		label := e.bands.Label(c)
		if b, ok := e.bands.Lookup(c); ok {
			label = b.ShortLabel()
		}
		out = append(out, Option{
			Key:      c,
			Label:    label,
			Enabled:  av.Bands[c] || sel.Has(c),
			Selected: sel.Has(c),
			Pressed:  sel.All() || sel.Has(c),
		})
	}
	return out
}

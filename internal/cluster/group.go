// Package cluster groups co-located licence records into markers and
// merges nearby markers into clusters.
package cluster

import (
	"fmt"
	"sort"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/model"
)

// DefaultRadiusMeters is the proximity threshold for merging markers.
const DefaultRadiusMeters = 50.0

// MarkerGroup is every record of one carrier at one rounded coordinate.
type MarkerGroup struct {
	Key     string
	Carrier string
	// Lat/Lon are the unrounded coordinate of the first record seen.
	Lat     float64
	Lon     float64
	Records []*model.Record
}

// GroupKey identifies a carrier at a coordinate rounded to six decimals.
func GroupKey(carrier string, lat, lon float64) string {
	return fmt.Sprintf("%s|%.6f|%.6f", carrier, lat, lon)
}

// LocationKey identifies a coordinate rounded to six decimals.
func LocationKey(lat, lon float64) string {
	return fmt.Sprintf("%.6f|%.6f", lat, lon)
}

// Group builds marker groups in first-seen order. Records without
// coordinates are skipped.
func Group(records []*model.Record) []*MarkerGroup {
	byKey := make(map[string]*MarkerGroup)
	var out []*MarkerGroup
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		key := GroupKey(r.CarrierKey, *r.Lat, *r.Lon)
		g, ok := byKey[key]
		if !ok {
			g = &MarkerGroup{Key: key, Carrier: r.CarrierKey, Lat: *r.Lat, Lon: *r.Lon}
			byKey[key] = g
			out = append(out, g)
		}
		g.Records = append(g.Records, r)
	}
	return out
}

// CarrierGroup is the slice of a cluster's records belonging to one carrier.
type CarrierGroup struct {
	Carrier string
	Label   string
	Color   string
	Records []*model.Record
}

// PartitionByCarrier splits records by carrier key, ordered by the
// carrier display label. Record order within a carrier is preserved.
func PartitionByCarrier(records []*model.Record) []CarrierGroup {
	idx := make(map[string]int)
	var out []CarrierGroup
	for _, r := range records {
		i, ok := idx[r.CarrierKey]
		if !ok {
			meta := classify.Meta(r.CarrierKey)
			i = len(out)
			idx[r.CarrierKey] = i
			out = append(out, CarrierGroup{Carrier: r.CarrierKey, Label: meta.Label, Color: meta.Color})
		}
		out[i].Records = append(out[i].Records, r)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Label != out[b].Label {
			return out[a].Label < out[b].Label
		}
		return out[a].Carrier < out[b].Carrier
	})
	return out
}

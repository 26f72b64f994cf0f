package cluster

import (
	"math"
	"sort"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/geo"
)

// DefaultOffsetMeters is the ring radius used to fan out co-located markers.
const DefaultOffsetMeters = 25.0

// Placement is where a marker group is drawn.
type Placement struct {
	Group *MarkerGroup
	Lat   float64
	Lon   float64
}

// Place fans out groups of different carriers that share an exact rounded
// coordinate onto a ring of radius meters, ordered by carrier label. A
// group alone at its coordinate is drawn in place.
func Place(groups []*MarkerGroup, meters float64) []Placement {
	if meters <= 0 {
		meters = DefaultOffsetMeters
	}
	buckets := make(map[string][]*MarkerGroup)
	var order []string
	for _, g := range groups {
		k := LocationKey(g.Lat, g.Lon)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], g)
	}

	out := make([]Placement, 0, len(groups))
	for _, k := range order {
		entries := buckets[k]
		sort.SliceStable(entries, func(i, j int) bool {
			return classify.Meta(entries[i].Carrier).Label < classify.Meta(entries[j].Carrier).Label
		})
		n := len(entries)
		for i, g := range entries {
			if n == 1 {
				out = append(out, Placement{Group: g, Lat: g.Lat, Lon: g.Lon})
				continue
			}
			// Angle runs counter-clockwise from east; bearing is clockwise from north.
			angle := 360 * float64(i) / float64(n)
			bearing := math.Mod(90-angle+360, 360)
			lat, lon := geo.DestinationPoint(g.Lat, g.Lon, bearing, meters)
			out = append(out, Placement{Group: g, Lat: lat, Lon: lon})
		}
	}
	return out
}

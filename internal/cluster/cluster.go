package cluster

import (
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/sells-group/rrf-map/internal/geo"
	"github.com/sells-group/rrf-map/internal/model"
)

// Cluster is a connected component of marker groups: two groups are linked
// when they are within the radius of each other, so clusters can chain
// beyond the radius.
type Cluster struct {
	// Lat/Lon is the representative point, taken from the seed group.
	Lat       float64
	Lon       float64
	Groups    []*MarkerGroup
	Records   []*model.Record
	ByCarrier []CarrierGroup
}

// Build merges groups into clusters. Output is deterministic: clusters are
// ordered by their seed group's position in groups, and members by index.
func Build(groups []*MarkerGroup, radiusM float64) []Cluster {
	if len(groups) == 0 {
		return nil
	}
	if radiusM <= 0 {
		radiusM = DefaultRadiusMeters
	}

	idx := newCellIndex(groups, radiusM)
	visited := make([]bool, len(groups))
	var out []Cluster

	for seed := range groups {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		members := []int{seed}
		stack := []int{seed}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, n := range idx.candidates(cur) {
				if visited[n] {
					continue
				}
				g, h := groups[cur], groups[n]
				if geo.HaversineMeters(g.Lat, g.Lon, h.Lat, h.Lon) > radiusM {
					continue
				}
				visited[n] = true
				members = append(members, n)
				stack = append(stack, n)
			}
		}
		sort.Ints(members)
		out = append(out, newCluster(groups, seed, members))
	}
	return out
}

func newCluster(groups []*MarkerGroup, seed int, members []int) Cluster {
	c := Cluster{Lat: groups[seed].Lat, Lon: groups[seed].Lon}
	for _, m := range members {
		c.Groups = append(c.Groups, groups[m])
		c.Records = append(c.Records, groups[m].Records...)
	}
	c.ByCarrier = PartitionByCarrier(c.Records)
	return c
}

// cellIndex buckets groups into S2 cells at least as wide as the radius, so
// every group within the radius lies in the same or an adjacent cell.
type cellIndex struct {
	level  int
	cells  map[s2.CellID][]int
	byItem []s2.CellID
}

func newCellIndex(groups []*MarkerGroup, radiusM float64) *cellIndex {
	angle := s1.Angle(radiusM / geo.EarthRadiusMeters)
	level := s2.MinWidthMetric.MaxLevel(angle.Radians()) - 1
	if level < 0 {
		level = 0
	}
	ix := &cellIndex{
		level:  level,
		cells:  make(map[s2.CellID][]int),
		byItem: make([]s2.CellID, len(groups)),
	}
	for i, g := range groups {
		id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(g.Lat, g.Lon)).Parent(level)
		ix.byItem[i] = id
		ix.cells[id] = append(ix.cells[id], i)
	}
	return ix
}

func (ix *cellIndex) candidates(i int) []int {
	id := ix.byItem[i]
	out := append([]int(nil), ix.cells[id]...)
	for _, n := range id.AllNeighbors(ix.level) {
		out = append(out, ix.cells[n]...)
	}
	return out
}

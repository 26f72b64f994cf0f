package cluster

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders clusters as GeoJSON points. Each feature
// carries the record count and a per-carrier breakdown.
func FeatureCollection(clusters []Cluster) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(clusters))}
	for _, c := range clusters {
		carriers := make([]map[string]any, 0, len(c.ByCarrier))
		for _, cg := range c.ByCarrier {
			ids := make([]string, len(cg.Records))
			for i, r := range cg.Records {
				ids[i] = r.ID
			}
			carriers = append(carriers, map[string]any{
				"carrier": cg.Carrier,
				"label":   cg.Label,
				"color":   cg.Color,
				"count":   len(cg.Records),
				"ids":     ids,
			})
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326),
			Properties: map[string]any{
				"count":    len(c.Records),
				"groups":   len(c.Groups),
				"carriers": carriers,
			},
		})
	}
	return fc
}

// PlacementCollection renders offset marker placements as GeoJSON points.
func PlacementCollection(placements []Placement) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(placements))}
	for _, p := range placements {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.Group.Key,
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}),
			Properties: map[string]any{
				"carrier": p.Group.Carrier,
				"count":   len(p.Group.Records),
				"lat":     p.Group.Lat,
				"lon":     p.Group.Lon,
			},
		})
	}
	return fc
}

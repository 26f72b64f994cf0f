// Package proximity finds the nearest site of each major operator to a
// point of interest.
package proximity

import (
	"math"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/geo"
	"github.com/sells-group/rrf-map/internal/model"
)

// Config names the operators searched. The secondary operator replaces
// the primary lines when it is strictly closer than all of them.
type Config struct {
	Primary   []string
	Secondary string
}

// DefaultConfig returns the three national operators with the rural
// network as secondary.
func DefaultConfig() Config {
	return Config{Primary: []string{"2degrees", "one", "spark"}, Secondary: "rcg"}
}

// Line connects the query point to one operator's nearest site.
type Line struct {
	Carrier   string        `json:"carrier"`
	Label     string        `json:"label"`
	Color     string        `json:"color"`
	Secondary bool          `json:"secondary"`
	Record    *model.Record `json:"record"`
	Lat       float64       `json:"lat"`
	Lon       float64       `json:"lon"`
	// DistanceMeters is the great-circle distance to the site.
	DistanceMeters float64 `json:"distance_m"`
}

// Result is the set of lines to draw from the query point.
type Result struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Lines []Line  `json:"lines"`
}

type candidate struct {
	rec  *model.Record
	dist float64
}

// Nearest ranks candidates by squared degree distance, which is only used
// for ordering. Operators with no candidate get no line. Ties keep the
// first record in input order.
func Nearest(lat, lon float64, records []*model.Record, cfg Config) Result {
	res := Result{Lat: lat, Lon: lon}
	if !geo.ValidLatLon(lat, lon) {
		return res
	}

	want := make(map[string]bool, len(cfg.Primary)+1)
	for _, k := range cfg.Primary {
		want[k] = true
	}
	if cfg.Secondary != "" {
		want[cfg.Secondary] = true
	}

	best := make(map[string]candidate)
	for _, r := range records {
		if !want[r.CarrierKey] || !r.HasCoordinates() {
			continue
		}
		d := geo.SquaredDegrees(lat, lon, *r.Lat, *r.Lon)
		if c, ok := best[r.CarrierKey]; !ok || d < c.dist {
			best[r.CarrierKey] = candidate{rec: r, dist: d}
		}
	}

	bestPrimary := math.Inf(1)
	for _, k := range cfg.Primary {
		if c, ok := best[k]; ok && c.dist < bestPrimary {
			bestPrimary = c.dist
		}
	}

	if sec, ok := best[cfg.Secondary]; ok && cfg.Secondary != "" && sec.dist < bestPrimary {
		res.Lines = []Line{newLine(lat, lon, cfg.Secondary, sec.rec, true)}
		return res
	}

	for _, k := range cfg.Primary {
		if c, ok := best[k]; ok {
			res.Lines = append(res.Lines, newLine(lat, lon, k, c.rec, false))
		}
	}
	return res
}

func newLine(lat, lon float64, carrier string, r *model.Record, secondary bool) Line {
	meta := classify.Meta(carrier)
	return Line{
		Carrier:        carrier,
		Label:          meta.Label,
		Color:          meta.Color,
		Secondary:      secondary,
		Record:         r,
		Lat:            *r.Lat,
		Lon:            *r.Lon,
		DistanceMeters: geo.HaversineMeters(lat, lon, *r.Lat, *r.Lon),
	}
}

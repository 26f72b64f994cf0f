package geo

import (
	"strings"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/model"
)

// Bounds is an open latitude/longitude box. Points on the edge are outside.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether lat/lon lie strictly inside the box.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat > b.MinLat && lat < b.MaxLat && lon > b.MinLon && lon < b.MaxLon
}

// ResolverConfig configures coordinate resolution for a deployment region.
type ResolverConfig struct {
	// DirectTags are tried in order; each carries easting=lon, northing=lat.
	DirectTags []string
	// ProjectedTag names the projected grid system tried after direct tags.
	ProjectedTag string
	// Plausible bounds a direct coordinate must fall inside.
	Plausible Bounds
}

// DefaultResolverConfig returns the New Zealand configuration.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		DirectTags:   []string{"D", "D2000"},
		ProjectedTag: "TM2000",
		Plausible:    Bounds{MinLat: -60, MaxLat: -20, MinLon: 150, MaxLon: 190},
	}
}

// Resolver turns a record's georeferences into one WGS84 coordinate.
type Resolver struct {
	cfg        ResolverConfig
	transforms *Registry
}

// NewResolver returns a Resolver. A nil registry means no transforms.
func NewResolver(cfg ResolverConfig, transforms *Registry) *Resolver {
	if transforms == nil {
		transforms = NewRegistry()
	}
	return &Resolver{cfg: cfg, transforms: transforms}
}

// Resolve picks the coordinate for a record. Priority:
//   - no references: None
//   - each direct tag in order, first entry inside the plausible box wins
//   - first projected entry; no transform registered gives NoTransform,
//     a successful transform is returned without a box check
//   - otherwise Unknown
//
// Malformed entries are skipped and never fail the record.
func (r *Resolver) Resolve(refs []model.GeoReference) (lat, lon *float64, src model.GeoSource) {
	if len(refs) == 0 {
		return nil, nil, model.GeoSourceNone
	}

	for _, tag := range r.cfg.DirectTags {
		want := strings.ToUpper(tag)
		for _, ref := range refs {
			if refType(ref) != want {
				continue
			}
			la, lo, ok := r.direct(want, ref)
			if ok {
				return &la, &lo, model.DirectSource(tag)
			}
		}
	}

	projected := strings.ToUpper(r.cfg.ProjectedTag)
	if projected == "" {
		return nil, nil, model.GeoSourceUnknown
	}
	for _, ref := range refs {
		if refType(ref) != projected {
			continue
		}
		t, ok := r.transforms.Get(projected)
		if !ok {
			return nil, nil, model.NoTransformSource(r.cfg.ProjectedTag)
		}
		if !ref.Easting.Valid || !ref.Northing.Valid {
			continue
		}
		out, err := t.Forward(geom.Coord{ref.Easting.Value, ref.Northing.Value})
		if err != nil {
			zap.L().Debug("geo: projected reference rejected", zap.String("tag", projected), zap.Error(err))
			continue
		}
		la, lo := out.Y(), out.X()
		if !ValidLatLon(la, lo) {
			continue
		}
		return &la, &lo, model.ProjectedSource(r.cfg.ProjectedTag)
	}

	return nil, nil, model.GeoSourceUnknown
}

func (r *Resolver) direct(tag string, ref model.GeoReference) (lat, lon float64, ok bool) {
	if !ref.Easting.Valid || !ref.Northing.Valid {
		return 0, 0, false
	}
	c := geom.Coord{ref.Easting.Value, ref.Northing.Value}
	if t, found := r.transforms.Get(tag); found {
		out, err := t.Forward(c)
		if err != nil {
			return 0, 0, false
		}
		c = out
	}
	lon, lat = c.X(), c.Y()
	if !r.cfg.Plausible.Contains(lat, lon) {
		return 0, 0, false
	}
	// The plausible box straddles the antimeridian.
	lon = WrapLon(lon)
	if !ValidLatLon(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func refType(ref model.GeoReference) string {
	return strings.ToUpper(strings.TrimSpace(ref.Type.String()))
}

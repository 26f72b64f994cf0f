package model

import "strings"

// GeoSourceKind classifies how a record's coordinates were obtained.
type GeoSourceKind int

const (
	// GeoNone means the record carried no georeferences at all.
	GeoNone GeoSourceKind = iota
	// GeoDirect means a lat/lon georeference was used as-is.
	GeoDirect
	// GeoProjected means a projected georeference was transformed to lat/lon.
	GeoProjected
	// GeoNoTransform means a projected georeference existed but no
	// transform was available for its system.
	GeoNoTransform
	// GeoUnknown means georeferences existed but none produced a coordinate.
	GeoUnknown
)

const noTransformSuffix = "(no-transform)"

var kindNames = map[GeoSourceKind]string{
	GeoNone:        "none",
	GeoDirect:      "direct",
	GeoProjected:   "projected",
	GeoNoTransform: "no-transform",
	GeoUnknown:     "unknown",
}

func (k GeoSourceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseGeoSourceKind is the inverse of GeoSourceKind.String.
func ParseGeoSourceKind(s string) (GeoSourceKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return GeoUnknown, false
}

// GeoSource records the provenance of a record's coordinates.
type GeoSource struct {
	Kind GeoSourceKind
	Tag  string
}

// Convenience constructors.
var (
	GeoSourceNone    = GeoSource{Kind: GeoNone}
	GeoSourceUnknown = GeoSource{Kind: GeoUnknown}
)

// DirectSource returns a GeoSource for a directly used georeference tag.
func DirectSource(tag string) GeoSource { return GeoSource{Kind: GeoDirect, Tag: tag} }

// ProjectedSource returns a GeoSource for a transformed georeference tag.
func ProjectedSource(tag string) GeoSource { return GeoSource{Kind: GeoProjected, Tag: tag} }

// NoTransformSource returns a GeoSource for a projected tag with no transform.
func NoTransformSource(tag string) GeoSource { return GeoSource{Kind: GeoNoTransform, Tag: tag} }

// HasCoordinates reports whether this provenance implies a coordinate.
func (s GeoSource) HasCoordinates() bool {
	return s.Kind == GeoDirect || s.Kind == GeoProjected
}

// String renders the provenance tag.
func (s GeoSource) String() string {
	switch s.Kind {
	case GeoNone:
		return "None"
	case GeoDirect, GeoProjected:
		return s.Tag
	case GeoNoTransform:
		return s.Tag + noTransformSuffix
	default:
		return "Unknown"
	}
}

// ParseGeoSource is the inverse of String. The rendered tag alone does not
// say whether a tag was direct or projected, so tags starting with "TM" are
// taken as projected grid systems. Callers holding the kind should use
// ParseGeoSourceWithKind.
func ParseGeoSource(s string) GeoSource {
	switch {
	case s == "" || s == "None":
		return GeoSourceNone
	case s == "Unknown":
		return GeoSourceUnknown
	case strings.HasSuffix(s, noTransformSuffix):
		return NoTransformSource(strings.TrimSuffix(s, noTransformSuffix))
	case strings.HasPrefix(strings.ToUpper(s), "TM"):
		return ProjectedSource(s)
	default:
		return DirectSource(s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s GeoSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *GeoSource) UnmarshalText(b []byte) error {
	*s = ParseGeoSource(string(b))
	return nil
}

// ParseGeoSourceWithKind parses s and applies kind when it names one.
func ParseGeoSourceWithKind(s, kind string) GeoSource {
	src := ParseGeoSource(s)
	k, ok := ParseGeoSourceKind(kind)
	if !ok {
		return src
	}
	src.Kind = k
	if k == GeoNone || k == GeoUnknown {
		src.Tag = ""
	}
	return src
}

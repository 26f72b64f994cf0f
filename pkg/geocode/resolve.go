package geocode

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

const (
	// MinSuggestChars is the shortest query that produces suggestions.
	MinSuggestChars = 3
	// DefaultSuggestLimit caps the suggestion list.
	DefaultSuggestLimit = 6
)

// ErrEmptyQuery is returned by Resolve for a blank query.
var ErrEmptyQuery = eris.New("geocode: empty query")

var latLonPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)$`)

// ParseLatLon accepts a literal "lat,lon" pair within world bounds.
func ParseLatLon(s string) (lat, lon float64, ok bool) {
	m := latLonPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	if !validLatLon(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func validLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Resolve turns a query into a single place. A literal coordinate pair
// never reaches the geocoder. Otherwise the first search result wins; a
// nil place with a nil error means nothing matched.
func Resolve(ctx context.Context, g Geocoder, q string) (*Place, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if lat, lon, ok := ParseLatLon(q); ok {
		return &Place{DisplayName: q, Lat: lat, Lon: lon}, nil
	}

	places, err := g.Search(ctx, q, 1)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: resolve %q", q)
	}
	if len(places) == 0 {
		return nil, nil
	}
	p := places[0]
	return &p, nil
}

// Suggest returns up to limit candidate places for type-ahead. Queries
// shorter than MinSuggestChars and coordinate literals return nothing.
func Suggest(ctx context.Context, g Geocoder, q string, limit int) ([]Place, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < MinSuggestChars {
		return nil, nil
	}
	if _, _, ok := ParseLatLon(q); ok {
		return nil, nil
	}
	if limit < 1 {
		limit = DefaultSuggestLimit
	}
	places, err := g.Search(ctx, q, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: suggest %q", q)
	}
	return places, nil
}

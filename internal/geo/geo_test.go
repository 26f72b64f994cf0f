package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/rrf-map/internal/model"
)

func ref(tag string, e, n any) model.GeoReference {
	r := model.GeoReference{Type: model.NewText(tag)}
	if v, ok := e.(float64); ok {
		r.Easting = model.NewNumber(v)
	}
	if v, ok := n.(float64); ok {
		r.Northing = model.NewNumber(v)
	}
	return r
}

func newResolver(enableTM bool) *Resolver {
	return NewResolver(DefaultResolverConfig(), DefaultRegistry(enableTM))
}

func TestResolveNoReferences(t *testing.T) {
	lat, lon, src := newResolver(true).Resolve(nil)
	assert.Nil(t, lat)
	assert.Nil(t, lon)
	assert.Equal(t, "None", src.String())
}

func TestResolveDirectD2000(t *testing.T) {
	lat, lon, src := newResolver(true).Resolve([]model.GeoReference{
		ref("D2000", 174.78, -41.29),
	})
	require.NotNil(t, lat)
	assert.InDelta(t, -41.29, *lat, 1e-9)
	assert.InDelta(t, 174.78, *lon, 1e-9)
	assert.Equal(t, "D2000", src.String())
}

func TestResolveDirectPriorityDOverD2000(t *testing.T) {
	lat, _, src := newResolver(true).Resolve([]model.GeoReference{
		ref("D2000", 174.0, -41.0),
		ref("d", 175.0, -40.0),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "D", src.String())
	assert.InDelta(t, -40.0, *lat, 1e-9)
}

func TestResolveDirectOutsideBoxFallsThrough(t *testing.T) {
	// Swapped axes put the point outside the box; D2000 entry is used instead.
	lat, lon, src := newResolver(true).Resolve([]model.GeoReference{
		ref("D", -41.29, 174.78),
		ref("D2000", 172.5, -43.5),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "D2000", src.String())
	assert.InDelta(t, -43.5, *lat, 1e-9)
	assert.InDelta(t, 172.5, *lon, 1e-9)
}

func TestResolveDirectBoxIsOpen(t *testing.T) {
	_, _, src := newResolver(false).Resolve([]model.GeoReference{
		ref("D", 150.0, -41.0),
	})
	assert.Equal(t, "Unknown", src.String())
}

func TestResolveDirectMalformedSwallowed(t *testing.T) {
	lat, _, src := newResolver(false).Resolve([]model.GeoReference{
		ref("D", nil, -41.0),
		ref("D", 174.0, -41.0),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "D", src.String())
}

func TestResolveDirectAntimeridianWrapped(t *testing.T) {
	lat, lon, src := newResolver(false).Resolve([]model.GeoReference{
		ref("D2000", 183.5, -44.0),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "D2000", src.String())
	assert.InDelta(t, -176.5, *lon, 1e-9)

	// Exactly 180 wraps to -180, outside the open world range.
	lat, lon, src = newResolver(false).Resolve([]model.GeoReference{
		ref("D", 180.0, -44.0),
	})
	assert.Nil(t, lat)
	assert.Nil(t, lon)
	assert.Equal(t, model.GeoUnknown, src.Kind)

	lat, lon, src = newResolver(false).Resolve([]model.GeoReference{
		ref("D", 180.0, -44.0),
		ref("D", 179.5, -44.0),
	})
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, "D", src.String())
	assert.InDelta(t, 179.5, *lon, 1e-9)
}

func TestResolveProjectedNoTransform(t *testing.T) {
	lat, lon, src := newResolver(false).Resolve([]model.GeoReference{
		ref("TM2000", 1748735.0, 5427916.0),
	})
	assert.Nil(t, lat)
	assert.Nil(t, lon)
	assert.Equal(t, model.GeoNoTransform, src.Kind)
	assert.Equal(t, "TM2000(no-transform)", src.String())
}

func TestResolveProjectedTransformed(t *testing.T) {
	lat, lon, src := newResolver(true).Resolve([]model.GeoReference{
		ref("TM2000", 1576041.150, 6188574.240),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "TM2000", src.String())
	assert.InDelta(t, -34.444066, *lat, 1e-4)
	assert.InDelta(t, 172.739194, *lon, 1e-4)
}

func TestResolveProjectedNoBoxCheck(t *testing.T) {
	fake := NewRegistry()
	require.NoError(t, fake.Register("TM2000", TransformFunc(func(c geom.Coord) (geom.Coord, error) {
		return geom.Coord{10, 10}, nil
	})))
	lat, lon, src := NewResolver(DefaultResolverConfig(), fake).Resolve([]model.GeoReference{
		ref("TM2000", 1.0, 2.0),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "TM2000", src.String())
	assert.InDelta(t, 10.0, *lat, 1e-9)
	assert.InDelta(t, 10.0, *lon, 1e-9)
}

func TestResolveProjectedFailureTriesNext(t *testing.T) {
	calls := 0
	fake := NewRegistry()
	require.NoError(t, fake.Register("TM2000", TransformFunc(func(c geom.Coord) (geom.Coord, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("boom")
		}
		return geom.Coord{174.0, -41.0}, nil
	})))
	lat, _, src := NewResolver(DefaultResolverConfig(), fake).Resolve([]model.GeoReference{
		ref("TM2000", 1.0, 2.0),
		ref("TM2000", 3.0, 4.0),
	})
	require.NotNil(t, lat)
	assert.Equal(t, "TM2000", src.String())
	assert.Equal(t, 2, calls)
}

func TestResolveUnknown(t *testing.T) {
	lat, _, src := newResolver(true).Resolve([]model.GeoReference{
		ref("XYZ", 1.0, 2.0),
	})
	assert.Nil(t, lat)
	assert.Equal(t, "Unknown", src.String())
}

func TestResolveResultEitherBothOrNeither(t *testing.T) {
	inputs := [][]model.GeoReference{
		nil,
		{ref("D", 174.0, -41.0)},
		{ref("D", 0.0, 0.0)},
		{ref("TM2000", 1600000.0, 5500000.0)},
		{ref("TM2000", nil, nil)},
	}
	r := newResolver(true)
	for _, in := range inputs {
		lat, lon, src := r.Resolve(in)
		assert.Equal(t, lat == nil, lon == nil)
		assert.Equal(t, lat != nil, src.HasCoordinates())
	}
}

func TestNZTMCentralMeridian(t *testing.T) {
	out, err := NZTM2000().Forward(geom.Coord{1600000, 10000000})
	require.NoError(t, err)
	assert.InDelta(t, 173.0, out.X(), 1e-9)
	assert.InDelta(t, 0.0, out.Y(), 1e-9)

	out, err = NZTM2000().Forward(geom.Coord{1600000, 5000000})
	require.NoError(t, err)
	assert.InDelta(t, 173.0, out.X(), 1e-9)
	assert.Less(t, out.Y(), -40.0)
}

func TestNZTMWellington(t *testing.T) {
	out, err := NZTM2000().Forward(geom.Coord{1748735, 5427916})
	require.NoError(t, err)
	assert.InDelta(t, -41.29, out.Y(), 0.02)
	assert.InDelta(t, 174.78, out.X(), 0.02)
}

func TestNZTMRejectsNonFinite(t *testing.T) {
	_, err := NZTM2000().Forward(geom.Coord{math.NaN(), 1})
	assert.Error(t, err)
	_, err = NZTM2000().Forward(geom.Coord{1})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("tm2000", NZTM2000()))
	assert.Error(t, r.Register("TM2000", NZTM2000()))
	assert.Error(t, r.Register("", NZTM2000()))

	_, ok := r.Get("Tm2000")
	assert.True(t, ok)
	assert.Equal(t, []string{"TM2000"}, r.Tags())

	assert.Empty(t, DefaultRegistry(false).Tags())
}

func TestHaversineMeters(t *testing.T) {
	// One degree of latitude on a 6371 km sphere.
	d := HaversineMeters(-41, 174, -40, 174)
	assert.InDelta(t, 111194.93, d, 1)
	assert.InDelta(t, 0, HaversineMeters(-41, 174, -41, 174), 1e-9)
}

func TestDestinationPointRoundTrip(t *testing.T) {
	lat, lon := DestinationPoint(-41.29, 174.78, 90, 25)
	assert.InDelta(t, 25, HaversineMeters(-41.29, 174.78, lat, lon), 0.01)
}

func TestWrapLon(t *testing.T) {
	assert.InDelta(t, 174.0, WrapLon(174.0), 1e-9)
	assert.InDelta(t, -176.5, WrapLon(183.5), 1e-9)
	assert.InDelta(t, 170.0, WrapLon(-190.0), 1e-9)
}

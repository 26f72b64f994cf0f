package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseLatLon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		ok       bool
		lat, lon float64
	}{
		{"-41.29,174.78", true, -41.29, 174.78},
		{"  -41.29 ,  174.78 ", true, -41.29, 174.78},
		{"0,0", true, 0, 0},
		{"90,180", true, 90, 180},
		{"91,0", false, 0, 0},
		{"0,-181", false, 0, 0},
		{"-41.29", false, 0, 0},
		{"Wellington", false, 0, 0},
		{"1e3,2", false, 0, 0},
		{"+41,174", false, 0, 0},
		{"", false, 0, 0},
	}
	for _, tt := range tests {
		lat, lon, ok := ParseLatLon(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.lat, lat, 1e-12, tt.in)
			assert.InDelta(t, tt.lon, lon, 1e-12, tt.in)
		}
	}
}

func TestResolveLiteralSkipsGeocoder(t *testing.T) {
	t.Parallel()

	g := new(mockGeocoder)
	p, err := Resolve(context.Background(), g, "-36.85, 174.76")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, -36.85, p.Lat, 1e-12)
	assert.InDelta(t, 174.76, p.Lon, 1e-12)
	g.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveFirstResultWins(t *testing.T) {
	t.Parallel()

	g := new(mockGeocoder)
	g.On("Search", mock.Anything, "Dunedin", 1).Return([]Place{
		{DisplayName: "Dunedin, Otago", Lat: -45.87, Lon: 170.50},
		{DisplayName: "Dunedin, Florida", Lat: 28.02, Lon: -82.77},
	}, nil)

	p, err := Resolve(context.Background(), g, " Dunedin ")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Dunedin, Otago", p.DisplayName)
	g.AssertExpectations(t)
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	g := new(mockGeocoder)
	g.On("Search", mock.Anything, "zzzz", 1).Return([]Place{}, nil)

	p, err := Resolve(context.Background(), g, "zzzz")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), new(mockGeocoder), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	g := new(mockGeocoder)
	g.On("Search", mock.Anything, "Taupo", 1).Return(nil, errors.New("unreachable"))
	_, err = Resolve(context.Background(), g, "Taupo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	g := new(mockGeocoder)
	g.On("Search", mock.Anything, "Rotorua", DefaultSuggestLimit).
		Return([]Place{{DisplayName: "Rotorua"}}, nil).Once()

	short, err := Suggest(context.Background(), g, " ro ", 0)
	require.NoError(t, err)
	assert.Nil(t, short)

	literal, err := Suggest(context.Background(), g, "-38.1,176.2", 0)
	require.NoError(t, err)
	assert.Nil(t, literal)

	got, err := Suggest(context.Background(), g, "Rotorua", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	g.AssertExpectations(t)
}

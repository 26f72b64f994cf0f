package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunStatusFetching, "fetching"},
		{RunStatusNormalizing, "normalizing"},
		{RunStatusComplete, "complete"},
		{RunStatusFailed, "failed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestRawRecordLooseDecoding(t *testing.T) {
	t.Parallel()

	body := `{
		"id": 12345,
		"licenceNo": "L-1",
		"licensee": "Spark New Zealand Trading Limited",
		"location": "Mt Victoria",
		"locationDistrictCodes": "WN",
		"locationGeoReferences": [
			{"type": "D2000", "easting": "174.78", "northing": -41.29},
			{"type": "TM2000", "easting": "not-a-number", "northing": 5427000}
		],
		"refFrequency": "1842.5",
		"lowerBound": 1835,
		"upperBound": "abc",
		"power": 43.5,
		"configType": "TRN",
		"suppressed": false,
		"commencementDate": "2020-01-15",
		"expiryDate": 20250101
	}`

	var r RawRecord
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.Equal(t, "12345", r.ID.String())
	assert.Equal(t, StringList{"WN"}, r.LocationDistrictCodes)
	require.Len(t, r.LocationGeoReferences, 2)
	assert.Equal(t, "D2000", r.LocationGeoReferences[0].Type.String())
	assert.InDelta(t, 174.78, r.LocationGeoReferences[0].Easting.Value, 1e-9)
	assert.True(t, r.LocationGeoReferences[0].Northing.Valid)
	assert.False(t, r.LocationGeoReferences[1].Easting.Valid)
	assert.InDelta(t, 1842.5, r.RefFrequency.Value, 1e-9)
	assert.True(t, r.LowerBound.Valid)
	assert.False(t, r.UpperBound.Valid)
	assert.Equal(t, "43.5", r.Power.String())
	assert.Equal(t, "false", r.Suppressed.String())
	assert.Equal(t, "20250101", r.ExpiryDate.String())
}

func TestNumberRejectsNonFinite(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`"NaN"`, `"nan"`, `"Inf"`, `"-Inf"`, `"Infinity"`, `"+Infinity"`, `"1e400"`} {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.False(t, n.Valid, in)
		assert.Nil(t, n.Ptr(), in)
	}

	var r RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{"refFrequency": "NaN", "lowerBound": "0", "upperBound": "Infinity"}`), &r))
	assert.False(t, r.RefFrequency.Valid)
	assert.True(t, r.LowerBound.Valid)
	assert.False(t, r.UpperBound.Valid)
}

func TestStringListArray(t *testing.T) {
	t.Parallel()

	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`["AK", "", "WK", null]`), &l))
	assert.Equal(t, StringList{"AK", "WK"}, l)

	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Nil(t, l)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2021-03-04", true, "2021-03-04"},
		{"2021-03-04T00:00:00", true, "2021-03-04"},
		{"2021-03-04T10:11:12Z", true, "2021-03-04"},
		{"2021-02-30", false, ""},
		{"2021-13-01", false, ""},
		{"04/03/2021", false, ""},
		{"2021-03-04xyz", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			d, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, d.String())
			}
		})
	}
}

func TestDateOrdering(t *testing.T) {
	t.Parallel()

	a := NewDate(2020, time.January, 1)
	b := NewDate(2020, time.June, 1)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(NewDate(2020, time.January, 1)))
}

func TestGeoSourceRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []GeoSource{
		GeoSourceNone,
		GeoSourceUnknown,
		DirectSource("D"),
		DirectSource("D2000"),
		ProjectedSource("TM2000"),
		NoTransformSource("TM2000"),
	} {
		s := s
		t.Run(s.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, s, ParseGeoSource(s.String()))
		})
	}
	assert.Equal(t, "TM2000(no-transform)", NoTransformSource("TM2000").String())
}

func TestRecordJSONNulls(t *testing.T) {
	t.Parallel()

	d := NewDate(2022, time.May, 9)
	r := Record{
		ID:               "1",
		DistrictCodes:    []string{},
		BandCode:         "unknown",
		CarrierKey:       "unknown",
		CommencementDate: &d,
		GeoSource:        NoTransformSource("TM2000"),
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Nil(t, m["lat"])
	assert.Nil(t, m["bandwidthMHz"])
	assert.Equal(t, "2022-05-09", m["commencementDate"])
	assert.Equal(t, "TM2000(no-transform)", m["geoSource"])
	assert.Equal(t, "no-transform", m["geoSourceKind"])

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, GeoNoTransform, back.GeoSource.Kind)
	require.NotNil(t, back.CommencementDate)
	assert.True(t, back.CommencementDate.Equal(d))
	assert.Nil(t, back.ExpiryDate)
}

func TestRecordJSONBadDateReloadsAbsent(t *testing.T) {
	t.Parallel()

	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "1",
		"commencementDate": "not a date",
		"expiryDate": "2031-02-30",
		"certificationDate": 20200101,
		"lastUpdatedDate": "2024-06-01"
	}`), &r))
	assert.Nil(t, r.CommencementDate)
	assert.Nil(t, r.ExpiryDate)
	assert.Nil(t, r.CertificationDate)
	require.NotNil(t, r.LastUpdatedDate)
	assert.Equal(t, "2024-06-01", r.LastUpdatedDate.String())
}

func TestRecordJSONKeepsGeoSourceKind(t *testing.T) {
	t.Parallel()

	for _, src := range []GeoSource{
		ProjectedSource("NZGD49"),
		DirectSource("TMWGS"),
		NoTransformSource("NZGD49"),
		GeoSourceNone,
		GeoSourceUnknown,
	} {
		b, err := json.Marshal(Record{ID: "1", GeoSource: src})
		require.NoError(t, err)

		var back Record
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, src, back.GeoSource, src.String())
	}

	// Records saved without a kind fall back to the tag heuristic.
	var legacy Record
	require.NoError(t, json.Unmarshal([]byte(`{"id": "1", "geoSource": "TM2000"}`), &legacy))
	assert.Equal(t, GeoProjected, legacy.GeoSource.Kind)
}

func TestParseGeoSourceWithKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProjectedSource("NZGD49"), ParseGeoSourceWithKind("NZGD49", "projected"))
	assert.Equal(t, DirectSource("NZGD49"), ParseGeoSourceWithKind("NZGD49", "bogus"))
	assert.Equal(t, GeoSourceUnknown, ParseGeoSourceWithKind("Unknown", "unknown"))

	k, ok := ParseGeoSourceKind("no-transform")
	assert.True(t, ok)
	assert.Equal(t, GeoNoTransform, k)
	_, ok = ParseGeoSourceKind("sideways")
	assert.False(t, ok)
}

func TestDistrictName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Wellington", DistrictName("WN"))
	assert.Equal(t, "Hawke's Bay", DistrictName("HB"))
	assert.Equal(t, "XX", DistrictName("XX"))

	r := Record{DistrictCodes: []string{"AK", "ZZ"}}
	assert.Equal(t, []string{"Auckland", "ZZ"}, r.DistrictNames())
}

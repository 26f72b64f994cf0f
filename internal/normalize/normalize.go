// Package normalize converts raw registry records into normalised licence
// records: receive-only configurations are dropped, coordinates resolved,
// numeric and date fields parsed, and band and carrier keys derived.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/geo"
	"github.com/sells-group/rrf-map/internal/model"
)

// ConfigReceiveOnly is the configuration type of receive-only records.
const ConfigReceiveOnly = "RCV"

// Stats summarises one normalisation pass.
type Stats struct {
	Input      int            `json:"input"`
	Kept       int            `json:"kept"`
	Dropped    int            `json:"dropped"`
	GeoSources map[string]int `json:"geo_sources"`
	Bands      map[string]int `json:"bands"`
	Carriers   map[string]int `json:"carriers"`
}

// Normalizer holds the classification tables and coordinate resolver.
type Normalizer struct {
	resolver *geo.Resolver
	bands    classify.BandTable
	rules    classify.RuleSet
}

// New returns a Normalizer.
func New(resolver *geo.Resolver, bands classify.BandTable, rules classify.RuleSet) *Normalizer {
	return &Normalizer{resolver: resolver, bands: bands, rules: rules}
}

// Normalize converts raws in order. Per-field failures never drop a record;
// only receive-only configurations are removed.
func (n *Normalizer) Normalize(raws []model.RawRecord) ([]model.Record, Stats) {
	st := Stats{
		Input:      len(raws),
		GeoSources: make(map[string]int),
		Bands:      make(map[string]int),
		Carriers:   make(map[string]int),
	}
	out := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		rec, ok := n.Record(raw)
		if !ok {
			st.Dropped++
			continue
		}
		st.GeoSources[rec.GeoSource.String()]++
		st.Bands[rec.BandCode]++
		st.Carriers[rec.CarrierKey]++
		out = append(out, rec)
	}
	st.Kept = len(out)
	return out, st
}

// Record normalises a single raw record. It reports false for receive-only
// configurations.
func (n *Normalizer) Record(raw model.RawRecord) (model.Record, bool) {
	if strings.EqualFold(strings.TrimSpace(raw.ConfigType.String()), ConfigReceiveOnly) {
		return model.Record{}, false
	}

	lat, lon, src := n.resolver.Resolve(raw.LocationGeoReferences)
	ref := raw.RefFrequency.Ptr()

	districts := make([]string, 0, len(raw.LocationDistrictCodes))
	districts = append(districts, raw.LocationDistrictCodes...)

	rec := model.Record{
		ID:                     raw.ID.String(),
		LicenceNo:              raw.LicenceNo.String(),
		Licensee:               raw.Licensee.String(),
		Location:               raw.Location.String(),
		DistrictCodes:          districts,
		RefFrequencyMHz:        ref,
		BandCode:               n.bands.Classify(ref),
		CarrierKey:             n.rules.Carrier(raw.Licensee.String()),
		LowerBoundMHz:          raw.LowerBound.Ptr(),
		UpperBoundMHz:          raw.UpperBound.Ptr(),
		BandwidthMHz:           Bandwidth(raw.LowerBound, raw.UpperBound),
		Power:                  raw.Power.Ptr(),
		ConfigType:             raw.ConfigType.Ptr(),
		LicenceTypeCode:        raw.LicenceTypeCode.Ptr(),
		LicenceTypeDescription: raw.LicenceTypeDescription.Ptr(),
		LicenceStatus:          raw.LicenceStatus.Ptr(),
		Suppressed:             parseBool(raw.Suppressed),
		CommencementDate:       model.ParseDatePtr(raw.CommencementDate.String()),
		ExpiryDate:             model.ParseDatePtr(raw.ExpiryDate.String()),
		CertificationDate:      model.ParseDatePtr(raw.CertificationDate.String()),
		LastUpdatedDate:        model.ParseDatePtr(raw.LastUpdatedDate.String()),
		Lat:                    lat,
		Lon:                    lon,
		GeoSource:              src,
	}
	return rec, true
}

// Bandwidth is upper minus lower, absent when either bound is missing or
// the difference is negative or not finite.
func Bandwidth(lower, upper model.Number) *float64 {
	if !lower.Valid || !upper.Valid {
		return nil
	}
	bw := upper.Value - lower.Value
	if bw < 0 || math.IsNaN(bw) || math.IsInf(bw, 0) {
		return nil
	}
	return &bw
}

func parseBool(t model.Text) *bool {
	if !t.Valid {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(t.Value))
	if err != nil {
		return nil
	}
	return &b
}

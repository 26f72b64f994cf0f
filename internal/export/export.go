// Package export writes normalised licence records to spreadsheet and
// shapefile formats.
package export

import (
	"strings"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/model"
)

// Columns is the spreadsheet header row.
var Columns = []string{
	"id", "licenceNo", "licensee", "carrier", "location", "districts",
	"band", "refFrequencyMHz", "lowerBoundMHz", "upperBoundMHz", "bandwidthMHz",
	"power", "configType", "licenceType", "licenceStatus",
	"commencementDate", "expiryDate", "lat", "lon", "geoSource",
}

// cells renders one record in Columns order. Absent values are nil.
func cells(r *model.Record) []any {
	return []any{
		r.ID,
		r.LicenceNo,
		r.Licensee,
		classify.Meta(r.CarrierKey).Label,
		r.Location,
		strings.Join(r.DistrictNames(), "; "),
		r.BandCode,
		floatOrNil(r.RefFrequencyMHz),
		floatOrNil(r.LowerBoundMHz),
		floatOrNil(r.UpperBoundMHz),
		floatOrNil(r.BandwidthMHz),
		stringOrNil(r.Power),
		stringOrNil(r.ConfigType),
		stringOrNil(r.LicenceTypeDescription),
		stringOrNil(r.LicenceStatus),
		dateOrNil(r.CommencementDate),
		dateOrNil(r.ExpiryDate),
		floatOrNil(r.Lat),
		floatOrNil(r.Lon),
		r.GeoSource.String(),
	}
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func dateOrNil(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

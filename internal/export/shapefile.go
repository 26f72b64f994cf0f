package export

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/classify"
	"github.com/sells-group/rrf-map/internal/model"
)

// wgs84PRJ is the ESRI WKT for EPSG:4326, written beside the .shp.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// ShapeFields are the DBF attribute columns. DBF names are limited to ten
// characters.
var ShapeFields = []shp.Field{
	shp.StringField("ID", 20),
	shp.StringField("LICENCE", 20),
	shp.StringField("LICENSEE", 100),
	shp.StringField("CARRIER", 20),
	shp.StringField("LOCATION", 100),
	shp.StringField("DISTRICTS", 60),
	shp.StringField("BAND", 16),
	shp.FloatField("REF_MHZ", 14, 4),
	shp.FloatField("BW_MHZ", 14, 4),
	shp.StringField("POWER", 20),
	shp.StringField("STATUS", 30),
	shp.StringField("COMMENCE", 10),
	shp.StringField("EXPIRY", 10),
	shp.StringField("GEO_SRC", 30),
}

// WriteShapefile writes one POINT per record with coordinates to path
// (.shp, plus the .shx, .dbf and .prj siblings). Records without
// coordinates are skipped. It returns the number of shapes written.
func WriteShapefile(path string, records []model.Record) (int, error) {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	if err := w.SetFields(ShapeFields); err != nil {
		return 0, eris.Wrap(err, "export: set shapefile fields")
	}

	written, skipped := 0, 0
	for i := range records {
		r := &records[i]
		if !r.HasCoordinates() {
			skipped++
			continue
		}
		row := int(w.Write(&shp.Point{X: *r.Lon, Y: *r.Lat}))
		for field, v := range attributes(r) {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				v = truncate(s, int(ShapeFields[field].Size))
			}
			if err := w.WriteAttribute(row, field, v); err != nil {
				return written, eris.Wrapf(err, "export: write attribute %d for record %s", field, r.ID)
			}
		}
		written++
	}

	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	if err := os.WriteFile(prj, []byte(wgs84PRJ), 0o644); err != nil {
		return written, eris.Wrapf(err, "export: write %s", prj)
	}

	zap.L().Debug("export: shapefile written",
		zap.String("path", path),
		zap.Int("shapes", written),
		zap.Int("skipped", skipped),
	)
	return written, nil
}

// attributes renders r in ShapeFields order.
func attributes(r *model.Record) []any {
	return []any{
		r.ID,
		r.LicenceNo,
		r.Licensee,
		classify.Meta(r.CarrierKey).Label,
		r.Location,
		strings.Join(r.DistrictCodes, ","),
		r.BandCode,
		floatOrNil(r.RefFrequencyMHz),
		floatOrNil(r.BandwidthMHz),
		stringOrNil(r.Power),
		stringOrNil(r.LicenceStatus),
		dateOrNil(r.CommencementDate),
		dateOrNil(r.ExpiryDate),
		r.GeoSource.String(),
	}
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/geo"
	"github.com/sells-group/rrf-map/internal/model"
)

// parseState builds a filter state from query parameters. carrier and band
// may repeat or hold comma-separated keys; absent means "all". Carriers the
// engine excludes are never offered as options, so they are dropped from
// the selection too.
func parseState(q url.Values, engine *facet.Engine) (facet.State, error) {
	carriers := listParam(q, "carrier")
	if engine != nil {
		kept := carriers[:0]
		for _, key := range carriers {
			if !engine.Excluded(key) {
				kept = append(kept, key)
			}
		}
		carriers = kept
	}
	st := facet.State{
		Carriers: facet.NewSelection(carriers...),
		Bands:    facet.NewSelection(listParam(q, "band")...),
		Base: facet.BaseFilter{
			Location: strings.TrimSpace(q.Get("location")),
			District: strings.TrimSpace(q.Get("district")),
		},
	}

	dates := []struct {
		name string
		dst  **model.Date
	}{
		{"comm_from", &st.Base.CommencementFrom},
		{"comm_to", &st.Base.CommencementTo},
		{"exp_from", &st.Base.ExpiryFrom},
		{"exp_to", &st.Base.ExpiryTo},
	}
	for _, d := range dates {
		raw := strings.TrimSpace(q.Get(d.name))
		if raw == "" {
			continue
		}
		parsed, ok := model.ParseDate(raw)
		if !ok {
			return facet.State{}, eris.Errorf("%s must be a YYYY-MM-DD date", d.name)
		}
		*d.dst = &parsed
	}
	return st, nil
}

func listParam(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parsePoint reads lat and lon. It reports ok=false when both are absent
// and an error when only one is given or either is unusable.
func parsePoint(q url.Values) (lat, lon float64, ok bool, err error) {
	rawLat, rawLon := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if rawLat == "" && rawLon == "" {
		return 0, 0, false, nil
	}
	if rawLat == "" || rawLon == "" {
		return 0, 0, false, eris.New("lat and lon must be given together")
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false, eris.New("lat and lon must be numbers")
	}
	if !geo.ValidLatLon(lat, lon) {
		return 0, 0, false, eris.New("lat and lon are out of range")
	}
	return lat, lon, true, nil
}

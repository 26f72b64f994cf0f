package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/geo"
	"github.com/sells-group/rrf-map/internal/proximity"
	"github.com/sells-group/rrf-map/pkg/geocode"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Find the nearest site of each major operator to a place",
	Example: `  rrf-map nearest --q "Taupo"
  rrf-map nearest --q "-38.69,176.07"
  rrf-map nearest --lat -41.29 --lon 174.78 --band b28`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("nearest"); err != nil {
			return err
		}
		ctx := cmd.Context()

		q, _ := cmd.Flags().GetString("q")
		lat, lon, label, err := nearestPoint(cmd, q)
		if err != nil {
			return err
		}
		if label == "" {
			g := newGeocoder(cfg.Geocode, nil)
			if g == nil {
				return eris.New("nearest: geocode.base_url is not configured")
			}
			place, err := geocode.Resolve(ctx, g, q)
			if err != nil {
				return err
			}
			if place == nil {
				return eris.Errorf("nearest: no place matched %q", q)
			}
			lat, lon, label = place.Lat, place.Lon, place.DisplayName
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.LoadRecords(ctx)
		if err != nil {
			return err
		}
		filtered := facet.Filter(recordPtrs(records), filterState(cmd))
		res := proximity.Nearest(lat, lon, filtered, proximityConfig(cfg.Cluster))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		formatNearest(os.Stdout, label, res)
		return nil
	},
}

// nearestPoint returns the query point when it needs no geocoding: explicit
// --lat/--lon or a literal "lat,lon" in --q. An empty label means q must
// be geocoded.
func nearestPoint(cmd *cobra.Command, q string) (lat, lon float64, label string, err error) {
	latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	switch {
	case latSet && lonSet:
		lat, _ = cmd.Flags().GetFloat64("lat")
		lon, _ = cmd.Flags().GetFloat64("lon")
		if !geo.ValidLatLon(lat, lon) {
			return 0, 0, "", eris.Errorf("nearest: %g,%g is out of range", lat, lon)
		}
		return lat, lon, fmt.Sprintf("%.6f,%.6f", lat, lon), nil
	case latSet || lonSet:
		return 0, 0, "", eris.New("nearest: --lat and --lon must be given together")
	case q == "":
		return 0, 0, "", eris.New("nearest: provide --q or --lat and --lon")
	}
	if lat, lon, ok := geocode.ParseLatLon(q); ok {
		return lat, lon, q, nil
	}
	return 0, 0, "", nil
}

func formatNearest(w io.Writer, label string, res proximity.Result) {
	fmt.Fprintf(w, "Nearest sites to %s (%.5f, %.5f)\n", label, res.Lat, res.Lon)
	if len(res.Lines) == 0 {
		fmt.Fprintln(w, "No operator sites match the current filters.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATOR\tDISTANCE\tLOCATION\tLICENCE\tBAND\tLAT\tLON")
	for _, l := range res.Lines {
		name := l.Label
		if l.Secondary {
			name += " (only)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.5f\t%.5f\n",
			name,
			formatDistance(l.DistanceMeters),
			l.Record.Location,
			l.Record.LicenceNo,
			l.Record.BandCode,
			l.Lat, l.Lon,
		)
	}
	_ = tw.Flush()
}

func formatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return fmt.Sprintf("%.2f km", m/1000)
}

func init() {
	nearestCmd.Flags().String("q", "", "place name or \"lat,lon\"")
	nearestCmd.Flags().Float64("lat", 0, "query latitude")
	nearestCmd.Flags().Float64("lon", 0, "query longitude")
	nearestCmd.Flags().Bool("json", false, "print the result as JSON")
	addFilterFlags(nearestCmd)
	rootCmd.AddCommand(nearestCmd)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rrf-map/internal/export"
	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored licence records as a spreadsheet or shapefile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		out, err := exportPath(format, out, cfg.Export.Dir)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		all, err := st.LoadRecords(ctx)
		if err != nil {
			return err
		}
		records := derefRecords(facet.Filter(recordPtrs(all), filterState(cmd)))

		switch format {
		case "xlsx":
			if err := export.WriteXLSX(out, records); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Wrote %d records to %s\n", len(records), out)
		case "shp":
			n, err := export.WriteShapefile(out, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Wrote %d of %d records to %s (%d without coordinates skipped)\n",
				n, len(records), out, len(records)-n)
		}
		return nil
	},
}

// exportPath validates format and picks the output file, defaulting to a
// name in dir.
func exportPath(format, out, dir string) (string, error) {
	var name string
	switch format {
	case "xlsx":
		name = "rrf_licences.xlsx"
	case "shp":
		name = "rrf_licences.shp"
	default:
		return "", eris.Errorf("export: unknown format %q (want xlsx or shp)", format)
	}
	if out != "" {
		return out, nil
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name), nil
}

func derefRecords(ptrs []*model.Record) []model.Record {
	out := make([]model.Record, len(ptrs))
	for i, r := range ptrs {
		out[i] = *r
	}
	return out
}

func init() {
	exportCmd.Flags().String("format", "xlsx", "output format: xlsx or shp")
	exportCmd.Flags().String("out", "", "output path (default in export.dir)")
	addFilterFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/monitoring"
	"github.com/sells-group/rrf-map/internal/pipeline"
	"github.com/sells-group/rrf-map/internal/registry"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Re-normalise previously fetched raw records",
	Long:  "Reads a raw search-results JSON array (as written by ingest --raw-out), normalises it, and replaces the stored record set without contacting the register.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("normalize"); err != nil {
			return err
		}
		ctx := cmd.Context()

		in, _ := cmd.Flags().GetString("in")
		f, err := os.Open(in)
		if err != nil {
			return eris.Wrapf(err, "normalize: open %s", in)
		}
		raws, err := registry.ReadRaw(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		norm, err := newNormalizer()
		if err != nil {
			return err
		}

		p := pipeline.New(nil, norm, st, monitoring.NewMetrics(nil))
		res, err := p.Renormalize(ctx, raws)
		if err != nil {
			return err
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			records, err := st.LoadRecords(ctx)
			if err != nil {
				return err
			}
			if err := writeRecordsJSON(out, records); err != nil {
				return err
			}
			zap.L().Info("normalized records written", zap.String("path", out), zap.Int("records", len(records)))
		}

		formatResult(os.Stdout, res)
		return nil
	},
}

// writeRecordsJSON writes the flat, indented record array.
func writeRecordsJSON(path string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "normalize: marshal records")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "normalize: write %s", path)
	}
	return nil
}

func init() {
	normalizeCmd.Flags().String("in", "", "raw search-results JSON file")
	normalizeCmd.Flags().String("out", "", "also write the normalised records to this JSON file")
	_ = normalizeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(normalizeCmd)
}

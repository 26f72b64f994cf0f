package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/model"
)

// addFilterFlags registers the facet and attribute filters shared by
// nearest and export.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("carrier", nil, "carrier keys to include (default all)")
	cmd.Flags().StringSlice("band", nil, "band codes to include (default all)")
	cmd.Flags().String("location", "", "location substring")
	cmd.Flags().String("district", "", "district code")
}

// filterState reads the shared filter flags into a facet state.
func filterState(cmd *cobra.Command) facet.State {
	carriers, _ := cmd.Flags().GetStringSlice("carrier")
	bands, _ := cmd.Flags().GetStringSlice("band")
	location, _ := cmd.Flags().GetString("location")
	district, _ := cmd.Flags().GetString("district")
	return facet.State{
		Carriers: facet.NewSelection(carriers...),
		Bands:    facet.NewSelection(bands...),
		Base:     facet.BaseFilter{Location: location, District: district},
	}
}

func recordPtrs(records []model.Record) []*model.Record {
	out := make([]*model.Record, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}

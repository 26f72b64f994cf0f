package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/sells-group/rrf-map/internal/monitoring"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest ingest run and recent history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("status"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		collector := monitoring.NewCollector(st, clockwork.NewRealClock(), time.Duration(cfg.Monitor.StaleHours)*time.Hour)
		snap, err := collector.Collect(ctx)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		formatStatus(os.Stdout, snap)
		return nil
	},
}

func formatStatus(w io.Writer, snap *monitoring.Snapshot) {
	if snap.LatestRun == nil {
		fmt.Fprintln(w, "No complete ingest runs.")
	} else {
		r := snap.LatestRun
		fmt.Fprintf(w, "Latest run:  %s\n", r.ID)
		fmt.Fprintf(w, "Finished:    %s (%.1f hours ago)\n", finishedAt(r.StartedAt, r.FinishedAt), snap.AgeHours)
		fmt.Fprintf(w, "Records:     %d kept, %d receive-only dropped, %d fetched of %d\n",
			r.Kept, r.Dropped, r.Fetched, r.TotalItems)

		sources := make([]string, 0, len(r.GeoSources))
		for s := range r.GeoSources {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		if len(sources) > 0 {
			fmt.Fprintln(w, "Coordinate sources:")
			for _, s := range sources {
				fmt.Fprintf(w, "  %-22s %d\n", s, r.GeoSources[s])
			}
		}
	}
	if snap.Stale {
		fmt.Fprintln(w, "WARNING: licence data is stale; run ingest.")
	}

	if len(snap.RecentRuns) == 0 {
		return
	}
	fmt.Fprintf(w, "\nRecent runs (%d complete, %d failed):\n", snap.Complete, snap.Failed)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTARTED\tKEPT\tERROR")
	for _, r := range snap.RecentRuns {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		errMsg := r.Error
		if len(errMsg) > 60 {
			errMsg = errMsg[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", id, r.Status, r.StartedAt.Format("2006-01-02 15:04"), r.Kept, errMsg)
	}
	_ = tw.Flush()
}

func finishedAt(started time.Time, finished *time.Time) string {
	if finished == nil {
		return started.Format("2006-01-02 15:04")
	}
	return finished.Format("2006-01-02 15:04")
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the snapshot as JSON")
	rootCmd.AddCommand(statusCmd)
}

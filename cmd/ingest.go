package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/rrf-map/internal/config"
	"github.com/sells-group/rrf-map/internal/monitoring"
	"github.com/sells-group/rrf-map/internal/pipeline"
	"github.com/sells-group/rrf-map/internal/registry"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch the licence register, normalise and store it",
	Long:  "Pages through the public licence search, drops receive-only configurations, resolves coordinates, classifies band and operator, and replaces the stored record set. A failed run leaves the previous records in place.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		norm, err := newNormalizer()
		if err != nil {
			return err
		}

		rawOut, _ := cmd.Flags().GetString("raw-out")
		p := pipeline.New(
			newRegistryClient(cfg.Registry),
			norm,
			st,
			monitoring.NewMetrics(nil),
			pipeline.WithRawOutput(rawOut),
		)

		res, err := p.Run(ctx, ingestQuery(cmd.Flags(), cfg.Registry))
		if err != nil {
			return err
		}
		formatResult(os.Stdout, res)
		return nil
	},
}

// ingestQuery starts from configuration and applies any flags the user set.
func ingestQuery(flags *pflag.FlagSet, c config.RegistryConfig) registry.Query {
	q := registry.DefaultQuery()
	if c.LicenceType > 0 {
		q.LicenceType = c.LicenceType
	}
	if c.OrderBy != "" {
		q.OrderBy = c.OrderBy
	}
	if c.PageSize > 0 {
		q.PageSize = c.PageSize
	}
	q.MaxPages = c.MaxPages
	q.Suppressed = c.Suppressed
	q.Sleep = time.Duration(c.SleepMs) * time.Millisecond

	if flags.Changed("licence-type") {
		q.LicenceType, _ = flags.GetInt("licence-type")
	}
	if flags.Changed("order-by") {
		q.OrderBy, _ = flags.GetString("order-by")
	}
	if flags.Changed("page-size") {
		q.PageSize, _ = flags.GetInt("page-size")
	}
	if flags.Changed("max-pages") {
		q.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("suppressed") {
		q.Suppressed, _ = flags.GetBool("suppressed")
	}
	if flags.Changed("sleep") {
		q.Sleep, _ = flags.GetDuration("sleep")
	}
	return q
}

// formatResult prints a run summary with per-source coordinate tallies.
func formatResult(w io.Writer, res *pipeline.Result) {
	run := res.Run
	fmt.Fprintf(w, "Run:         %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(w, "Registry:    %d items across %d pages\n", res.Summary.TotalItems, res.Summary.TotalPages)
	fmt.Fprintf(w, "Fetched:     %d\n", run.Fetched)
	fmt.Fprintf(w, "Kept:        %d\n", run.Kept)
	fmt.Fprintf(w, "Dropped:     %d (receive-only)\n", run.Dropped)

	sources := make([]string, 0, len(res.Stats.GeoSources))
	for s := range res.Stats.GeoSources {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	if len(sources) > 0 {
		fmt.Fprintln(w, "Coordinate sources:")
		for _, s := range sources {
			fmt.Fprintf(w, "  %-22s %d\n", s, res.Stats.GeoSources[s])
		}
	}
}

func init() {
	ingestCmd.Flags().Int("page-size", 5000, "records per search page")
	ingestCmd.Flags().Int("max-pages", 0, "stop after this many pages (0 = all)")
	ingestCmd.Flags().Duration("sleep", 0, "pause between page requests")
	ingestCmd.Flags().Int("licence-type", 178, "licence type filter")
	ingestCmd.Flags().String("order-by", "id desc", "search sort order")
	ingestCmd.Flags().Bool("suppressed", false, "include suppressed licences")
	ingestCmd.Flags().String("raw-out", "", "also write the raw search results to this JSON file")
	rootCmd.AddCommand(ingestCmd)
}

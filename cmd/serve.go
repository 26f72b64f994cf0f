package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rrf-map/internal/api"
	"github.com/sells-group/rrf-map/internal/monitoring"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the licence map API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		engine, err := newEngine()
		if err != nil {
			return err
		}

		latest, err := st.LatestRun(ctx)
		if err != nil {
			return eris.Wrap(err, "serve: latest run")
		}
		records, err := st.LoadRecords(ctx)
		if err != nil {
			return eris.Wrap(err, "serve: load records")
		}
		runID := ""
		if latest != nil {
			runID = latest.ID
		}
		if len(records) == 0 {
			zap.L().Warn("no licence records stored; run ingest first")
		}

		metrics := monitoring.NewMetrics(nil)
		h := api.NewHandler(api.HandlerConfig{
			Engine:       engine,
			Options:      viewOptions(cfg.Cluster),
			Proximity:    proximityConfig(cfg.Cluster),
			Geocoder:     newGeocoder(cfg.Geocode, metrics),
			SuggestLimit: cfg.Geocode.SuggestLimit,
			Metrics:      metrics,
		}, records)

		srv := api.NewServer(h, api.ServerConfig{
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
		})

		clock := clockwork.NewRealClock()
		interval := time.Duration(cfg.Monitor.CheckIntervalMins) * time.Minute
		checker := monitoring.NewChecker(
			monitoring.NewCollector(st, clock, time.Duration(cfg.Monitor.StaleHours)*time.Hour),
			clock,
			interval,
		)
		reloader := api.NewReloader(st, h, clock, interval, runID)

		zap.L().Info("serving licence map",
			zap.Int("port", cfg.Server.Port),
			zap.Int("records", len(records)),
			zap.String("run_id", runID),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			checker.Run(gctx)
			return nil
		})
		g.Go(func() error {
			reloader.Run(gctx)
			return nil
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

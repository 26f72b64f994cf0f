package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rrf-map",
	Short: "Spectrum licence map engine",
	Long:  "Ingests the Radio Spectrum Management licence register, resolves licence coordinates, classifies band and operator, and serves a filterable, clustered map API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

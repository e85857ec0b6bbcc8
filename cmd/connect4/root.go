package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/connect4/internal/config"
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/stats/prometheus"
)

var (
	// Global flags.
	dataDir     string
	configPath  string
	verbose     bool
	metricsAddr string

	// Set up by the root command before any subcommand runs.
	cfg       config.Config
	log       *zap.Logger
	collector stats.Collector = stats.NewNoop()
)

var rootCmd = &cobra.Command{
	Use:   "connect4",
	Short: "Connect-Four engine with a persisted transposition table",
	Long: `connect4 plays and analyzes Connect-Four with a negamax search backed by
a transposition table that is partitioned by move number and persisted to
disk, Badger, S3 or Cloud Storage.

Examples:
  # Play against the engine at depth 8
  connect4 play --difficulty 8

  # Analyze the position after a move sequence
  connect4 analyze 3344

  # Seed 1000 positions at ply 12
  connect4 seed --amount 1000 --plies 12

  # Show what the table holds
  connect4 stats`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "directory containing partition files (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if log, err = newLogger(verbose); err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	if metricsAddr != "" {
		reg := prom.NewRegistry()
		collector = prometheus.New(reg)
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           prometheus.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", metricsAddr))
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zc.Encoding = "console"
	zc.DisableStacktrace = true
	return zc.Build()
}

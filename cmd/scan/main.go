// Package main provides a one-shot scan command for ad-hoc use: fetch every
// enabled source once, run a single cycle, and print the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharpline/internal/adapter"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/matcher"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/quotes"
	"github.com/yourusername/sharpline/internal/scanner"
)

var (
	configPath string
	timeout    time.Duration
	arbsOnly   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle and print detected opportunities",
		RunE:  runScan,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to configuration file")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "overall time budget for the scan")
	rootCmd.Flags().BoolVar(&arbsOnly, "arbitrages-only", false, "print only arbitrage opportunities")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// One-shot runs get the whole flag-provided budget, not the service
	// cadence settings.
	cfg.Engine.ScanTimeoutSeconds = int(timeout.Seconds())

	appLog := logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	adapters, err := adapter.NewFactory(appLog).BuildAll(cfg)
	if err != nil {
		return fmt.Errorf("build source adapters: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	store := quotes.NewStore()
	match := matcher.New(cfg.Engine.MatchTolerance(), appLog)
	engine := scanner.New(cfg.Engine, adapters, store, match, appLog)

	if err := engine.Scan(ctx); err != nil {
		return fmt.Errorf("scan cycle: %w", err)
	}

	set := engine.Published()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if arbsOnly {
		return enc.Encode(set.Arbitrages)
	}
	return enc.Encode(set)
}

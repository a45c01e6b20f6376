package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/internal/metrics"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "storageprobe",
	Short: "Object storage conformance and benchmark harness",
	Long: `storageprobe verifies and measures object storage backends through a
uniform provider contract.

Suites:
  storageprobe test                      # conformance suite, all providers
  storageprobe test s3-dev --suite security

Benchmarks:
  storageprobe bench local               # timed transfers and fan-out

Operations:
  storageprobe health                    # probe every configured provider
  storageprobe list local --prefix logs/`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Exit status is non-zero when the
// invoked operation errors or a suite fails.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output and debug logging")
}

// loadConfig builds the effective configuration: defaults, then the
// config file, then environment overrides.
func loadConfig() (*config.Configuration, error) {
	cfg := config.NewDefault()
	if cfgFile != "" {
		if err := cfg.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCollector builds the metrics collector from the global config.
func newCollector(cfg *config.Configuration) (*metrics.Collector, error) {
	return metrics.NewCollector(&metrics.Config{
		Enabled: cfg.Global.MetricsEnabled,
		Port:    cfg.Global.MetricsPort,
	})
}

// newLogger builds the process logger from the global config. Verbose
// forces debug level regardless of configuration.
func newLogger(cfg *config.Configuration) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToUpper(cfg.Global.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Global.LogFile != "" {
		f, err := os.OpenFile(cfg.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out = f
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

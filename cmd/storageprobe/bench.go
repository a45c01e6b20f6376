package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/storageprobe/storageprobe/internal/bench"
	"github.com/storageprobe/storageprobe/internal/provider"
	"github.com/storageprobe/storageprobe/internal/report"
)

var benchCmd = &cobra.Command{
	Use:   "bench [provider]",
	Short: "Benchmark a provider's transfer throughput",
	Long: `Measure timed upload and download, a large-object round trip, and a
concurrent upload fan-out against one provider. Payload sizes and
concurrency come from the benchmark section of the configuration.

Examples:
  storageprobe bench
  storageprobe bench s3-dev`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	name := "local"
	if len(args) == 1 {
		name = args[0]
	}

	ctx := cmd.Context()
	collector, err := newCollector(cfg)
	if err != nil {
		return err
	}
	if cfg.Global.MetricsEnabled {
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := collector.Start(serveCtx); err != nil {
				logger.Warn("metrics endpoint failed", "error", err)
			}
		}()
	}

	p, err := provider.New(ctx, name, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	runner := bench.NewRunner(&cfg.Benchmark, collector, logger, true)
	rep, err := runner.Run(ctx, p)
	if err != nil {
		return err
	}

	report.NewRenderer(os.Stdout, verbose).BenchReport(rep)
	return nil
}

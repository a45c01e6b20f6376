package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storageprobe/storageprobe/internal/provider"
	"github.com/storageprobe/storageprobe/internal/report"
	"github.com/storageprobe/storageprobe/internal/suite"
	"github.com/storageprobe/storageprobe/pkg/types"
)

var suiteName string

var testCmd = &cobra.Command{
	Use:   "test [providers...]",
	Short: "Run a verification suite against configured providers",
	Long: `Run one of the named suites (conformance, performance, security)
against the given providers, or against every configured provider when
none are named. Providers run sequentially; one provider's failure does
not abort the others.

Examples:
  storageprobe test
  storageprobe test local s3-dev --suite performance`,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVarP(&suiteName, "suite", "s", "conformance", "suite to run (conformance, performance, security)")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	providers := args
	if len(providers) == 0 {
		providers = cfg.ProviderNames()
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

	factory := func(ctx context.Context, name string) (types.Provider, error) {
		return provider.New(ctx, name, cfg, logger)
	}

	runner := suite.NewRunner(cfg, factory, collector, logger)
	results, err := runner.Run(ctx, suiteName, providers)
	if err != nil {
		return err
	}

	report.NewRenderer(os.Stdout, verbose).SuiteResults(results)

	for _, res := range results {
		if !res.Passed() {
			return fmt.Errorf("suite %s did not pass for provider %s", suiteName, res.Provider)
		}
	}
	return nil
}

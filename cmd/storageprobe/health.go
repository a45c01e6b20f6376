package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/storageprobe/storageprobe/internal/provider"
	"github.com/storageprobe/storageprobe/internal/report"
	"github.com/storageprobe/storageprobe/pkg/types"
)

var healthCmd = &cobra.Command{
	Use:   "health [providers...]",
	Short: "Probe provider connectivity",
	Long: `Check that each named provider (or every configured one) can be
initialized and answer a bounded list request.

Examples:
  storageprobe health
  storageprobe health s3-dev minio-dev`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = cfg.ProviderNames()
	}

	ctx := cmd.Context()
	statuses := make([]types.HealthStatus, 0, len(names))
	for _, name := range names {
		p, err := provider.New(ctx, name, cfg, logger)
		if err != nil {
			statuses = append(statuses, types.HealthStatus{
				Provider:  name,
				Status:    types.StateUnhealthy,
				Message:   err.Error(),
				CheckedAt: time.Now(),
			})
			continue
		}
		statuses = append(statuses, types.CheckHealth(ctx, p))
		p.Close()
	}

	report.NewRenderer(os.Stdout, verbose).HealthStatuses(statuses)

	for _, s := range statuses {
		if !s.Healthy() {
			return fmt.Errorf("provider %s is unhealthy", s.Provider)
		}
	}
	return nil
}

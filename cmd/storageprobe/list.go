package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/storageprobe/storageprobe/internal/provider"
	"github.com/storageprobe/storageprobe/internal/report"
	"github.com/storageprobe/storageprobe/pkg/types"
)

var (
	listPrefix string
	listLimit  int
	listToken  string
)

var listCmd = &cobra.Command{
	Use:   "list <provider>",
	Short: "List objects in a provider",
	Long: `List one page of objects from the named provider, optionally
filtered by prefix.

Examples:
  storageprobe list local
  storageprobe list s3-dev --prefix logs/ --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "only list keys with this prefix")
	listCmd.Flags().IntVar(&listLimit, "limit", 100, "maximum objects per page")
	listCmd.Flags().StringVar(&listToken, "token", "", "continuation token from a previous page")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := provider.New(ctx, args[0], cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	page, err := p.List(ctx, &types.ListOptions{
		Prefix:            listPrefix,
		Limit:             listLimit,
		ContinuationToken: listToken,
	})
	if err != nil {
		return err
	}

	report.NewRenderer(os.Stdout, verbose).Listing(page)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/usage/retention"
)

var pruneFlags struct {
	days int
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete listings older than the retention window",
	Long: `Run one retention pass against the listing store and exit. The
scheduled pruning in "run" does the same on the configured cron schedule.

Examples:
  listingforge prune --config config.yaml
  listingforge prune --days 90`,
	RunE: pruneListings,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().IntVar(&pruneFlags.days, "days", 0, "override retention days (0 uses config)")
}

func pruneListings(cmd *cobra.Command, args []string) error {
	cfg, err := config.ReadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	days := cfg.Usage.Retention.Days
	if pruneFlags.days > 0 {
		days = pruneFlags.days
	}

	store, err := openListingStore(&cfg.Usage)
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, &retention.Config{RetentionDays: days})
	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d listing(s) older than %d days\n", deleted, days)
	return nil
}

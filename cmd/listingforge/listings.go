package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/usage"
	"listingforge/gateway/pkg/usage/export"
)

var listingsFlags struct {
	account string
	format  string
	limit   int
	output  string
}

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Work with stored listing history",
}

var listingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export listing history as JSON or CSV",
	Long: `Export stored listings, newest first, from the configured listing store.

Examples:
  # Everything for one account as JSON
  listingforge listings export --account acct_123

  # Last 100 listings of all accounts as CSV
  listingforge listings export --format csv --limit 100 --out listings.csv`,
	RunE: exportListings,
}

func init() {
	rootCmd.AddCommand(listingsCmd)
	listingsCmd.AddCommand(listingsExportCmd)

	listingsExportCmd.Flags().StringVar(&listingsFlags.account, "account", "", "restrict to one account")
	listingsExportCmd.Flags().StringVarP(&listingsFlags.format, "format", "f", "json", "export format: json, csv")
	listingsExportCmd.Flags().IntVar(&listingsFlags.limit, "limit", 0, "maximum listings (0 exports all)")
	listingsExportCmd.Flags().StringVar(&listingsFlags.output, "out", "", "output file (default stdout)")
}

func exportListings(cmd *cobra.Command, args []string) error {
	exporter, err := export.New(listingsFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	if listingsFlags.limit < 0 {
		return cli.NewConfigError("limit", "limit must be non-negative")
	}

	cfg, err := config.ReadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	store, err := openListingStore(&cfg.Usage)
	if err != nil {
		return cli.NewCommandError("listings export", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	listings, err := store.List(ctx, &usage.Query{
		AccountID: listingsFlags.account,
		Limit:     listingsFlags.limit,
	})
	if err != nil {
		return cli.NewCommandError("listings export", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if listingsFlags.output != "" {
		f, err := os.Create(listingsFlags.output)
		if err != nil {
			return cli.NewCommandError("listings export", err)
		}
		defer f.Close()
		w = f
	}

	if err := exporter.Export(ctx, listings, w); err != nil {
		return cli.NewCommandError("listings export", err)
	}

	if listingsFlags.output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d listing(s) to %s\n", len(listings), listingsFlags.output)
	}
	return nil
}

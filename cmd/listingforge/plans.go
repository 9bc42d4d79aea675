package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/plans"
)

var plansFlags struct {
	output string
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show the effective plan table",
	Long: `Print every plan tier with its label and per-period limits after the
overrides from the configuration file are applied.

Secrets are not required, so the command works against a partial config.

Examples:
  listingforge plans
  listingforge plans --config config.yaml --output json`,
	RunE: showPlans,
}

func init() {
	rootCmd.AddCommand(plansCmd)

	plansCmd.Flags().StringVarP(&plansFlags.output, "output", "o", "text", "output format: text, json, csv")
}

func showPlans(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(plansFlags.output)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	cfg, err := config.ReadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	registry, err := planRegistry(cfg)
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), planTable(registry))
}

func planTable(registry *plans.Registry) *cli.Table {
	table := &cli.Table{Headers: []string{"plan", "label", "listings", "leads"}}
	for _, p := range registry.All() {
		table.AddRow(
			p.Tier.String(),
			p.Label,
			formatLimit(p.Limits.Listings),
			formatLimit(p.Limits.Leads),
		)
	}
	return table
}

func formatLimit(n int) string {
	if n >= plans.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the gateway configuration",
	Long: `Load the configuration file and environment overrides and report every
invalid field. Exits with status 2 when the configuration is invalid.

Examples:
  listingforge validate --config config.yaml
  LISTINGFORGE_AUTH_JWT_SECRET=... listingforge validate`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err == nil {
		_, err = planRegistry(cfg)
	}
	if err != nil {
		problems := cli.ConfigErrors(err)
		for _, p := range problems {
			if p.Field == "" {
				fmt.Fprintf(out, "✗ %s\n", p.Message)
				continue
			}
			fmt.Fprintf(out, "✗ %s: %s\n", p.Field, p.Message)
		}
		return cli.NewConfigError("", fmt.Sprintf("%d configuration problem(s) found", len(problems)))
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	if verbose {
		fmt.Fprintf(out, "  listen address: %s\n", cfg.Server.ListenAddress)
		fmt.Fprintf(out, "  quota backend:  %s\n", cfg.Quota.Backend)
		fmt.Fprintf(out, "  usage backend:  %s\n", cfg.Usage.Backend)
		fmt.Fprintf(out, "  model:          %s\n", cfg.Generation.Model)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "listingforge",
	Short: "ListingForge - metered listing generation gateway",
	Long: `ListingForge is the gateway in front of the listing content generator.

It authenticates account holders, enforces plan quotas, paces requests per
account, calls the generation provider and stores every charged listing.

Configuration is read from an optional YAML file and LISTINGFORGE_*
environment variables. GROQ_API_KEY is honoured as a fallback for the
provider key.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (empty uses defaults and environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/security/auth"
)

var tokenFlags struct {
	account string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an account",
	Long: `Sign a bearer token for the given account with the configured secret,
issuer and audience. Intended for local testing and support work; production
tokens come from the identity provider.

Examples:
  listingforge token --account acct_123
  listingforge token --account acct_123 --ttl 15m`,
	RunE: issueToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenFlags.account, "account", "", "account identifier (required)")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("account")
}

func issueToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.ReadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	if err != nil {
		return cli.NewConfigError("auth.jwt_secret", err.Error())
	}

	token, err := verifier.Issue(tokenFlags.account, tokenFlags.ttl)
	if err != nil {
		return cli.NewCommandError("token", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

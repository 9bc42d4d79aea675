package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/quota"
)

var accountsFlags struct {
	create bool
	output string
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect and administer account profiles",
	Long: `Work with the usage profiles held by the configured quota store.

Examples:
  listingforge accounts show acct_123
  listingforge accounts set-plan acct_123 pro
  listingforge accounts set-plan acct_new basic --create`,
}

var accountsShowCmd = &cobra.Command{
	Use:   "show <account>",
	Short: "Show an account's plan and usage for the current period",
	Args:  cobra.ExactArgs(1),
	RunE:  showAccount,
}

var accountsSetPlanCmd = &cobra.Command{
	Use:   "set-plan <account> <plan>",
	Short: "Change an account's plan tier",
	Long: `Change the plan tier of an account. This is the hook used by billing
when a subscription changes. Usage counters and the billing period are left
untouched.

Valid plans: free, basic, pro, enterprise.`,
	Args: cobra.ExactArgs(2),
	RunE: setAccountPlan,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsShowCmd)
	accountsCmd.AddCommand(accountsSetPlanCmd)

	accountsShowCmd.Flags().StringVarP(&accountsFlags.output, "output", "o", "text", "output format: text, json, csv")
	accountsSetPlanCmd.Flags().BoolVar(&accountsFlags.create, "create", false, "create the profile if the account is unknown")
}

func showAccount(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(accountsFlags.output)
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

	ctx := cmd.Context()
	store, err := openQuotaStore(ctx, &cfg.Quota)
	if err != nil {
		return cli.NewCommandError("accounts show", err)
	}
	defer store.Close()

	gate := quota.NewGate(store, registry, quota.GateConfig{Period: cfg.Quota.Period})
	profile, err := gate.Snapshot(ctx, args[0])
	if err != nil {
		return cli.NewCommandError("accounts show", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), accountTable(gate, profile))
}

func accountTable(gate *quota.Gate, p quota.Profile) *cli.Table {
	plan := gate.Plans().Plan(p.Plan)
	table := &cli.Table{Headers: []string{"account", "plan", "label", "used", "limit", "period_start", "next_reset"}}
	table.AddRow(
		p.AccountID,
		p.Plan.String(),
		plan.Label,
		strconv.Itoa(p.ListingsUsed),
		formatLimit(plan.Limits.Listings),
		p.PeriodStart.UTC().Format(time.RFC3339),
		gate.Period().NextReset(p).UTC().Format(time.RFC3339),
	)
	return table
}

func setAccountPlan(cmd *cobra.Command, args []string) error {
	accountID, tier := args[0], plans.Tier(args[1])
	if !tier.Valid() {
		return cli.NewConfigError("plan", fmt.Sprintf("unknown plan %q", args[1]))
	}

	cfg, err := config.ReadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	ctx := cmd.Context()
	store, err := openQuotaStore(ctx, &cfg.Quota)
	if err != nil {
		return cli.NewCommandError("accounts set-plan", err)
	}
	defer store.Close()

	if err := changePlan(ctx, store, accountID, tier, accountsFlags.create, time.Now()); err != nil {
		return cli.NewCommandError("accounts set-plan", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Account %s moved to plan %s\n", accountID, tier)
	return nil
}

// changePlan updates the plan of an existing profile, or provisions one
// when create is set and the account is unknown.
func changePlan(ctx context.Context, store quota.Store, accountID string, tier plans.Tier, create bool, now time.Time) error {
	setter, ok := store.(planSetter)
	if !ok {
		return fmt.Errorf("quota store %T cannot change plans", store)
	}

	err := setter.SetPlan(ctx, accountID, tier)
	if errors.Is(err, quota.ErrProfileNotFound) && create {
		return store.Provision(ctx, quota.Profile{
			AccountID:   accountID,
			Plan:        tier,
			PeriodStart: now,
		})
	}
	return err
}

/*
Package cli provides helpers shared by the listingforge commands.

Output Formatting:

Tabular results (the plan catalog, account snapshots) render as aligned
text, JSON or CSV:

	table := &cli.Table{Headers: []string{"PLAN", "LISTINGS"}}
	table.AddRow("free", "5")
	if err := cli.NewFormatter(cli.FormatText).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Errors:

ConfigError and CommandError carry enough context for a one-line message;
ExitCode maps them to process exit codes.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli

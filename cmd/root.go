package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wa",
		Short:         "Windsurf Accounts CLI (wa): manage accounts and token refresh",
		Long:          "wa (Windsurf Accounts CLI) keeps a pool of Windsurf accounts in sync with the account server: list and filter accounts, refresh expiring tokens on demand or on a schedule, and audit past operations from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newRefreshCmd(app),
		newWatchCmd(app),
		newSortCmd(app),
		newLogCmd(app),
	)

	return rootCmd
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLogCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent account operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := app.oplog.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no operations recorded")
				return err
			}

			for _, entry := range entries {
				subject := entry.AccountEmail
				if subject == "" {
					subject = string(entry.AccountID)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %-7s %s  %s\n",
					entry.CreatedAt.Local().Format(time.DateTime),
					entry.Type, entry.Status, subject, entry.Message)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to show")

	return cmd
}

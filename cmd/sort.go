package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

func newSortCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sort [field] [asc|desc]",
		Short: "Show or change the account sort order",
		Long:  "Without arguments prints the current sort order. With a field (email, created_at, used_quota, remaining_quota, token_expires_at, subscription_expires_at, plan_name) and an optional direction, persists the new order.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := app.store.LoadSortConfig(cmd.Context()); err != nil {
					return err
				}
				cfg := app.store.SortConfig()
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.Field, cfg.Direction)
				return err
			}

			field := domain.SortField(args[0])
			direction := domain.SortAsc
			if len(args) == 2 {
				direction = domain.SortDirection(args[1])
			}

			if err := app.store.Load(cmd.Context()); err != nil {
				return err
			}
			if err := app.store.SetSortConfig(cmd.Context(), field, direction); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sorting by %s %s\n", field, direction)
			return err
		},
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/windsurf-accounts-cli/internal/application"
	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

func newRefreshCmd(app *app) *cobra.Command {
	var (
		all    bool
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "refresh [id]",
		Short: "Refresh account tokens",
		Long:  "Refresh a single account's token, or with --all every account whose token is expired or about to expire.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("provide exactly one of an account id or --all")
			}

			if err := app.store.Load(cmd.Context()); err != nil {
				return err
			}

			if all {
				return runRefreshAll(cmd, app, limit, asJSON)
			}
			return runRefreshOne(cmd, app, domain.AccountID(args[0]), asJSON)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Refresh every account with an expired or expiring token")
	cmd.Flags().IntVar(&limit, "limit", application.DefaultConcurrentLimit, "Concurrent refresh ceiling for --all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runRefreshOne(cmd *cobra.Command, app *app, id domain.AccountID, asJSON bool) error {
	account, ok := app.store.ByID(id)
	if !ok {
		return fmt.Errorf("unknown account %q", id)
	}

	var outcome application.RefreshOutcome
	refresh := func(ctx context.Context) error {
		outcome = app.refresher.RefreshOne(ctx, account, true)
		app.queue.Flush()
		return nil
	}

	if asJSON {
		if err := refresh(cmd.Context()); err != nil {
			return err
		}
		if err := writeJSON(cmd, outcome); err != nil {
			return err
		}
	} else {
		label := fmt.Sprintf("Refreshing %s...", account.Email)
		if err := runRefreshSpinner(cmd.Context(), cmd.ErrOrStderr(), label, refresh); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), outcomeLine(outcome)); err != nil {
			return err
		}
	}

	if !outcome.Success {
		return fmt.Errorf("refresh %s: %s", outcome.Email, outcome.Error)
	}
	return nil
}

func runRefreshAll(cmd *cobra.Command, app *app, limit int, asJSON bool) error {
	targets := app.refresher.NeedsRefresh()

	var summary application.BatchRefreshSummary
	refresh := func(ctx context.Context) error {
		var err error
		summary, err = app.refresher.RefreshBatch(ctx, targets, limit)
		return err
	}

	if asJSON {
		if err := refresh(cmd.Context()); err != nil {
			return err
		}
		return writeJSON(cmd, summary)
	}

	if len(targets) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no accounts need a refresh")
		return err
	}

	label := fmt.Sprintf("Refreshing %d accounts...", len(targets))
	if err := runRefreshSpinner(cmd.Context(), cmd.ErrOrStderr(), label, refresh); err != nil {
		return err
	}

	for _, outcome := range summary.Results {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), outcomeLine(outcome)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d/%d accounts (%d failed)\n",
		summary.Success, summary.Total, summary.Failed)
	return err
}

func outcomeLine(outcome application.RefreshOutcome) string {
	if outcome.Success {
		return fmt.Sprintf("ok   %s", outcome.Email)
	}
	return fmt.Sprintf("fail %s: %s", outcome.Email, outcome.Error)
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	accountsrender "github.com/bnema/windsurf-accounts-cli/internal/adapters/render/accounts"
	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountAddCmd(app),
		newAccountRemoveCmd(app),
		newAccountOrderCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	var (
		search   string
		group    string
		tags     []string
		plans    []string
		domains  []string
		statuses []string
		page     int
		pageSize int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, optionally filtered and paginated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Load applies the persisted collection order; an explicit
			// `wa sort` run is what changes it.
			if err := app.store.Load(cmd.Context()); err != nil {
				return err
			}

			filter, err := buildFilter(search, group, tags, plans, domains, statuses)
			if err != nil {
				return err
			}
			app.store.SetFilter(filter)
			if pageSize > 0 {
				app.store.SetPageSize(pageSize)
			}
			app.store.SetPage(page)

			if asJSON {
				return writeAccountsJSON(cmd, app.store.Page())
			}

			output := accountsrender.Render(app.store.Page(), accountsrender.RenderOptions{
				Now:        app.now(),
				Page:       app.store.Pagination().CurrentPage,
				TotalPages: app.store.TotalPages(),
				TotalCount: app.store.TotalCount(),
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Match email, nickname or tags (case-insensitive)")
	cmd.Flags().StringVar(&group, "group", "", "Exact group match")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Keep accounts carrying any of these tags")
	cmd.Flags().StringSliceVar(&plans, "plan", nil, "Keep accounts on any of these plans")
	cmd.Flags().StringSliceVar(&domains, "domain", nil, "Keep accounts with any of these email domains")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Keep accounts in any of these display statuses (normal, offline, disabled, inactive, error)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Accounts per page (default 20)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var (
		email    string
		nickname string
		tags     []string
		group    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.store.Add(cmd.Context(), newAccountFields(email, nickname, tags, group))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", account.Email, account.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name (default: email)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags to attach")
	cmd.Flags().StringVar(&group, "group", "", "Group to place the account in")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove one or more accounts",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.Load(cmd.Context()); err != nil {
				return err
			}

			if len(args) == 1 {
				id := domain.AccountID(args[0])
				if _, ok := app.store.ByID(id); !ok {
					return fmt.Errorf("unknown account %q", args[0])
				}
				if err := app.store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return err
			}

			for _, arg := range args {
				id := domain.AccountID(arg)
				if _, ok := app.store.ByID(id); !ok {
					return fmt.Errorf("unknown account %q", arg)
				}
				app.store.ToggleSelection(id)
			}

			result, err := app.store.DeleteSelected(cmd.Context())
			if err != nil {
				return err
			}
			if len(result.FailedIDs) > 0 {
				return fmt.Errorf("failed to remove %d of %d accounts", len(result.FailedIDs), len(args))
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d accounts\n", len(args))
			return err
		},
	}
}

func newAccountOrderCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order <id>...",
		Short: "Persist a manual account ordering",
		Long:  "Pins the listed accounts to the front of the collection in the given order. Accounts not listed keep their relative order after them.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.Load(cmd.Context()); err != nil {
				return err
			}

			ids := make([]domain.AccountID, 0, len(args))
			for _, arg := range args {
				id := domain.AccountID(arg)
				if _, ok := app.store.ByID(id); !ok {
					return fmt.Errorf("unknown account %q", arg)
				}
				ids = append(ids, id)
			}

			if err := app.store.UpdateAccountsOrder(cmd.Context(), ids); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "order saved for %d accounts\n", len(ids))
			return err
		},
	}
}

func newAccountFields(email, nickname string, tags []string, group string) ports.NewAccount {
	if nickname == "" {
		nickname = email
	}
	return ports.NewAccount{
		Email:    email,
		Nickname: nickname,
		Tags:     tags,
		Group:    group,
	}
}

func buildFilter(search, group string, tags, plans, domains, statuses []string) (domain.Filter, error) {
	filter := domain.Filter{
		Search:    strings.TrimSpace(search),
		Group:     group,
		Tags:      tags,
		PlanNames: plans,
		Domains:   domains,
	}

	for _, raw := range statuses {
		status := domain.DisplayStatus(strings.ToLower(strings.TrimSpace(raw)))
		if !status.Valid() {
			return domain.Filter{}, fmt.Errorf("unknown status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	return filter, nil
}

func writeAccountsJSON(cmd *cobra.Command, accounts []domain.Account) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(accounts)
}

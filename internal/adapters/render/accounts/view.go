package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now        time.Time
	Page       int
	TotalPages int
	TotalCount int
	Selected   map[domain.AccountID]struct{}
}

// Render formats one page of accounts for the terminal.
func Render(accounts []domain.Account, opts RenderOptions) string {
	return renderView(accounts, opts, newStyles())
}

func renderView(accounts []domain.Account, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Windsurf Accounts"),
		s.header.Render(headerLine(opts)),
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts match the current filter."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range accounts {
		lines = append(lines, s.section.Render(renderAccount(account, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(opts RenderOptions) string {
	if opts.TotalPages > 1 {
		return fmt.Sprintf("accounts: %d (page %d/%d)", opts.TotalCount, opts.Page, opts.TotalPages)
	}
	return fmt.Sprintf("accounts: %d", opts.TotalCount)
}

func renderAccount(account domain.Account, opts RenderOptions, s styles) string {
	status := string(domain.Classify(account, opts.Now))

	title := s.email.Render(accountTitle(account))
	if _, ok := opts.Selected[account.ID]; ok {
		title = s.selectedMark.Render("* ") + title
	}

	parts := []string{
		fmt.Sprintf("%s %s", title, s.badge(status).Render("["+status+"]")),
		s.detail.Render(detailLine(account, opts.Now)),
	}
	if meta := metaLine(account); meta != "" {
		parts = append(parts, s.meta.Render(meta))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(account domain.Account) string {
	if account.Nickname != "" && account.Nickname != account.Email {
		return fmt.Sprintf("%s (%s)", account.Nickname, account.Email)
	}
	return account.Email
}

func detailLine(account domain.Account, now time.Time) string {
	fields := []string{planLabel(account.PlanName), quotaLabel(account)}

	if days, ok := account.DaysUntilExpiry(now); ok {
		fields = append(fields, fmt.Sprintf("expires in %dd", days))
	}

	return strings.Join(fields, "  ")
}

func planLabel(plan string) string {
	if plan == "" {
		return "plan: -"
	}
	return "plan: " + plan
}

func quotaLabel(account domain.Account) string {
	if account.TotalQuota == nil || account.UsedQuota == nil {
		return "quota: -"
	}

	return fmt.Sprintf("quota: %.0f/%.0f",
		float64(account.RemainingQuota())/domain.QuotaDisplayScale,
		float64(*account.TotalQuota)/domain.QuotaDisplayScale,
	)
}

func metaLine(account domain.Account) string {
	fields := make([]string, 0, 3)
	if account.Group != "" {
		fields = append(fields, "group: "+account.Group)
	}
	if len(account.Tags) > 0 {
		fields = append(fields, "tags: "+strings.Join(account.Tags, ","))
	}
	if account.StatusMessage != "" {
		fields = append(fields, account.StatusMessage)
	}
	return strings.Join(fields, "  ")
}

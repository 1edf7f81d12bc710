package domain

import (
	"strings"
	"time"
)

type AccountID string

type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusError    AccountStatus = "error"
)

// QuotaDisplayScale converts raw quota units to the value shown to users.
// Filters accept display values and scale them up before comparing.
const QuotaDisplayScale = 100

type Account struct {
	ID       AccountID
	Email    string
	Nickname string
	Tags     []string
	Group    string

	Status AccountStatus
	// StatusMessage carries the failure detail when Status is StatusError.
	StatusMessage string

	Token          string
	TokenExpiresAt *time.Time

	PlanName              string
	IsDisabled            *bool
	IsTeamOwner           *bool
	SubscriptionActive    *bool
	SubscriptionExpiresAt *time.Time

	UsedQuota       *int64
	TotalQuota      *int64
	LastQuotaUpdate *time.Time

	CreatedAt time.Time
}

// RemainingQuota returns the unused raw quota, clamped to zero. Accounts
// without quota figures report zero.
func (a Account) RemainingQuota() int64 {
	if a.TotalQuota == nil || a.UsedQuota == nil {
		return 0
	}

	remaining := *a.TotalQuota - *a.UsedQuota
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DaysUntilExpiry returns the whole days between now and the subscription
// expiry. The second return is false when the account has no expiry.
func (a Account) DaysUntilExpiry(now time.Time) (int, bool) {
	if a.SubscriptionExpiresAt == nil {
		return 0, false
	}

	return int(a.SubscriptionExpiresAt.Sub(now) / (24 * time.Hour)), true
}

// EmailDomain returns the part after "@", or empty when the email has none.
func (a Account) EmailDomain() string {
	_, domain, found := strings.Cut(a.Email, "@")
	if !found {
		return ""
	}
	return domain
}

// IsPaidPlan reports whether the account sits on a paying plan. Free and
// trial plans do not count.
func (a Account) IsPaidPlan() bool {
	plan := strings.ToLower(a.PlanName)
	return plan != "" && plan != "free" && plan != "trial"
}

package domain

import (
	"sort"
	"strings"
	"time"
)

type SortField string

const (
	SortFieldEmail                 SortField = "email"
	SortFieldCreatedAt             SortField = "created_at"
	SortFieldUsedQuota             SortField = "used_quota"
	SortFieldRemainingQuota        SortField = "remaining_quota"
	SortFieldTokenExpiresAt        SortField = "token_expires_at"
	SortFieldSubscriptionExpiresAt SortField = "subscription_expires_at"
	SortFieldPlanName              SortField = "plan_name"
)

func (f SortField) Valid() bool {
	switch f {
	case SortFieldEmail, SortFieldCreatedAt, SortFieldUsedQuota, SortFieldRemainingQuota,
		SortFieldTokenExpiresAt, SortFieldSubscriptionExpiresAt, SortFieldPlanName:
		return true
	default:
		return false
	}
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

type SortConfig struct {
	Field     SortField
	Direction SortDirection
}

func DefaultSortConfig() SortConfig {
	return SortConfig{Field: SortFieldCreatedAt, Direction: SortAsc}
}

// SortAccounts returns a sorted copy; the input is left untouched. The sort
// is stable so equal keys keep their collection order. Accounts without a
// timestamp sort after those with one in ascending order; descending simply
// reverses the ascending comparison, absent values included.
func SortAccounts(accounts []Account, cfg SortConfig) []Account {
	sorted := make([]Account, len(accounts))
	copy(sorted, accounts)

	sort.SliceStable(sorted, func(i, j int) bool {
		c := compareAccounts(sorted[i], sorted[j], cfg.Field)
		if cfg.Direction == SortDesc {
			c = -c
		}
		return c < 0
	})

	return sorted
}

func compareAccounts(a, b Account, field SortField) int {
	switch field {
	case SortFieldEmail:
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	case SortFieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortFieldUsedQuota:
		return compareInt64(int64OrZero(a.UsedQuota), int64OrZero(b.UsedQuota))
	case SortFieldRemainingQuota:
		return compareInt64(int64OrZero(a.TotalQuota)-int64OrZero(a.UsedQuota), int64OrZero(b.TotalQuota)-int64OrZero(b.UsedQuota))
	case SortFieldTokenExpiresAt:
		return compareOptionalTimes(a.TokenExpiresAt, b.TokenExpiresAt)
	case SortFieldSubscriptionExpiresAt:
		return compareOptionalTimes(a.SubscriptionExpiresAt, b.SubscriptionExpiresAt)
	case SortFieldPlanName:
		return compareInt64(int64(planPriority(a.PlanName)), int64(planPriority(b.PlanName)))
	default:
		return 0
	}
}

// planPriority ranks plans Enterprise > Teams > Pro > Trial > Free > unknown.
func planPriority(plan string) int {
	switch strings.ToLower(plan) {
	case "enterprise":
		return 5
	case "teams":
		return 4
	case "pro":
		return 3
	case "trial":
		return 2
	case "free":
		return 1
	default:
		return 0
	}
}

func compareOptionalTimes(a, b *time.Time) int {
	switch {
	case a != nil && b != nil:
		return a.Compare(*b)
	case a != nil:
		return -1
	case b != nil:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func int64OrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

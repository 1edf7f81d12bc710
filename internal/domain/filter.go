package domain

import (
	"strings"
	"time"
)

// Filter is an immutable set of predicates applied as a conjunction. Nil or
// empty fields impose no constraint. Quota bounds are display values and are
// scaled by QuotaDisplayScale before comparison.
type Filter struct {
	Search string
	Group  string
	Tags   []string

	RemainingQuotaMin *float64
	RemainingQuotaMax *float64
	TotalQuotaMin     *float64
	TotalQuotaMax     *float64

	ExpiryDaysMin *int
	ExpiryDaysMax *int

	PlanNames []string
	Domains   []string
	Statuses  []DisplayStatus
}

func (f Filter) Matches(account Account, now time.Time) bool {
	if f.Group != "" && account.Group != f.Group {
		return false
	}

	if len(f.Tags) > 0 && !anyTagOf(account.Tags, f.Tags) {
		return false
	}

	if f.Search != "" && !matchesSearch(account, f.Search) {
		return false
	}

	if f.RemainingQuotaMin != nil && float64(account.RemainingQuota()) < *f.RemainingQuotaMin*QuotaDisplayScale {
		return false
	}
	if f.RemainingQuotaMax != nil && float64(account.RemainingQuota()) > *f.RemainingQuotaMax*QuotaDisplayScale {
		return false
	}

	if f.TotalQuotaMin != nil && float64(totalQuotaOrZero(account)) < *f.TotalQuotaMin*QuotaDisplayScale {
		return false
	}
	if f.TotalQuotaMax != nil && float64(totalQuotaOrZero(account)) > *f.TotalQuotaMax*QuotaDisplayScale {
		return false
	}

	// Accounts with no subscription expiry never match a bounded expiry filter.
	if f.ExpiryDaysMin != nil {
		days, ok := account.DaysUntilExpiry(now)
		if !ok || days < *f.ExpiryDaysMin {
			return false
		}
	}
	if f.ExpiryDaysMax != nil {
		days, ok := account.DaysUntilExpiry(now)
		if !ok || days > *f.ExpiryDaysMax {
			return false
		}
	}

	if len(f.PlanNames) > 0 {
		if account.PlanName == "" || !containsString(f.PlanNames, account.PlanName) {
			return false
		}
	}

	if len(f.Domains) > 0 {
		domain := account.EmailDomain()
		if domain == "" || !containsString(f.Domains, domain) {
			return false
		}
	}

	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, Classify(account, now)) {
		return false
	}

	return true
}

func matchesSearch(account Account, query string) bool {
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(account.Email), query) {
		return true
	}
	if strings.Contains(strings.ToLower(account.Nickname), query) {
		return true
	}
	for _, tag := range account.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func anyTagOf(accountTags, wanted []string) bool {
	for _, tag := range wanted {
		for _, have := range accountTags {
			if have == tag {
				return true
			}
		}
	}
	return false
}

func totalQuotaOrZero(account Account) int64 {
	if account.TotalQuota == nil {
		return 0
	}
	return *account.TotalQuota
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func containsStatus(values []DisplayStatus, v DisplayStatus) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

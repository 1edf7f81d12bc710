package domain

import "time"

// DisplayStatus is the badge derived from an account's raw state.
type DisplayStatus string

const (
	DisplayNormal   DisplayStatus = "normal"
	DisplayOffline  DisplayStatus = "offline"
	DisplayDisabled DisplayStatus = "disabled"
	DisplayInactive DisplayStatus = "inactive"
	DisplayError    DisplayStatus = "error"
)

// Classify derives the display status for an account. Precedence is a
// business rule and must not be reordered: a lapsed paid subscription
// outranks the disabled flag, which outranks a stale token.
func Classify(account Account, now time.Time) DisplayStatus {
	if account.Status == StatusError {
		return DisplayError
	}
	if account.IsPaidPlan() && account.SubscriptionActive != nil && !*account.SubscriptionActive {
		return DisplayInactive
	}
	if account.IsDisabled != nil && *account.IsDisabled {
		return DisplayDisabled
	}
	if account.TokenExpiresAt == nil || !account.TokenExpiresAt.After(now) {
		return DisplayOffline
	}
	return DisplayNormal
}

func (s DisplayStatus) Valid() bool {
	switch s {
	case DisplayNormal, DisplayOffline, DisplayDisabled, DisplayInactive, DisplayError:
		return true
	default:
		return false
	}
}

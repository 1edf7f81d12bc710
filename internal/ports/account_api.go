package ports

import (
	"context"
	"time"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

// NewAccount carries the caller-supplied fields for account creation; the
// remote authority assigns the id and initial state.
type NewAccount struct {
	Email    string
	Nickname string
	Tags     []string
	Group    string
}

// RefreshData holds the fields a refresh call actually supplied. Nil and
// zero values mean "not reported" and must never overwrite local state.
type RefreshData struct {
	Token          string
	TokenExpiresAt *time.Time

	PlanName              string
	UsedQuota             *int64
	TotalQuota            *int64
	SubscriptionActive    *bool
	SubscriptionExpiresAt *time.Time
	// SubscriptionExpiresAtUnix is the batch endpoint's raw epoch-seconds
	// form, used when SubscriptionExpiresAt is not set.
	SubscriptionExpiresAtUnix int64

	IsDisabled  *bool
	IsTeamOwner *bool

	LastQuotaUpdate *time.Time
}

type RefreshResult struct {
	Success bool
	Error   string
	Data    *RefreshData
}

type BatchRefreshItem struct {
	ID      domain.AccountID
	Success bool
	Error   string
	Data    *RefreshData
}

type BatchRefreshResponse struct {
	Results []BatchRefreshItem
}

type BatchDeleteResult struct {
	FailedIDs []domain.AccountID
}

// AccountAPI is the remote account/authentication authority. Refresh calls
// are idempotent per account; the batch call parallelizes internally and
// treats the concurrency argument as advisory.
type AccountAPI interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	CreateAccount(ctx context.Context, fields NewAccount) (domain.Account, error)
	UpdateAccount(ctx context.Context, account domain.Account) error
	DeleteAccount(ctx context.Context, id domain.AccountID) error
	DeleteAccountsBatch(ctx context.Context, ids []domain.AccountID) (BatchDeleteResult, error)
	RefreshToken(ctx context.Context, id domain.AccountID) (RefreshResult, error)
	BatchRefreshTokens(ctx context.Context, ids []domain.AccountID, concurrency int) (BatchRefreshResponse, error)
}

package ports

import (
	"context"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

// Settings persists the sort configuration and the manual account ordering.
type Settings interface {
	SortConfig(ctx context.Context) (domain.SortConfig, error)
	SaveSortConfig(ctx context.Context, cfg domain.SortConfig) error
	AccountOrder(ctx context.Context) ([]domain.AccountID, error)
	SaveAccountOrder(ctx context.Context, ids []domain.AccountID) error
}

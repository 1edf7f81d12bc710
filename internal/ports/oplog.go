package ports

import (
	"context"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

type OperationLogStore interface {
	Append(ctx context.Context, entry domain.OperationLog) error
	Recent(ctx context.Context, limit int) ([]domain.OperationLog, error)
}

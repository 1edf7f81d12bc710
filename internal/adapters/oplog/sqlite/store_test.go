package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, domain.OperationLog{
			Type:         domain.OpRefreshToken,
			Status:       domain.OpSuccess,
			Message:      "refreshed",
			AccountID:    domain.AccountID("acc-1"),
			AccountEmail: "one@example.com",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, base.Add(2*time.Minute), entries[0].CreatedAt)
	assert.Equal(t, base.Add(time.Minute), entries[1].CreatedAt)
	assert.Equal(t, domain.OpRefreshToken, entries[0].Type)
	assert.Equal(t, "one@example.com", entries[0].AccountEmail)
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.OperationLog{
		Type:   domain.OpAddAccount,
		Status: domain.OpSuccess,
	}))

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRecentOnEmptyStore(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Append(context.Background(), domain.OperationLog{
		Type:   domain.OpDeleteAccount,
		Status: domain.OpFailed,
	}))
	require.NoError(t, first.Close())

	// Reopening the same database must not re-run migrations or lose rows.
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	entries, err := second.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

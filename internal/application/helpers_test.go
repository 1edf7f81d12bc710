package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
)

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// fakeAPI is an in-memory stand-in for the remote account authority.
type fakeAPI struct {
	mu sync.Mutex

	accounts []domain.Account
	nextID   int

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	updated []domain.Account

	refreshResults map[domain.AccountID]ports.RefreshResult
	refreshErr     error
	refreshCalls   []domain.AccountID

	batchResponse    ports.BatchRefreshResponse
	batchErr         error
	batchCalls       [][]domain.AccountID
	batchConcurrency []int

	deleteBatchResult ports.BatchDeleteResult
	deleteBatchErr    error
}

var _ ports.AccountAPI = (*fakeAPI)(nil)

func (f *fakeAPI) ListAccounts(_ context.Context) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Account, len(f.accounts))
	copy(out, f.accounts)
	return out, nil
}

func (f *fakeAPI) CreateAccount(_ context.Context, fields ports.NewAccount) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Account{}, f.createErr
	}

	f.nextID++
	account := domain.Account{
		ID:       domain.AccountID(fmt.Sprintf("acc-%d", f.nextID)),
		Email:    fields.Email,
		Nickname: fields.Nickname,
		Tags:     fields.Tags,
		Group:    fields.Group,
		Status:   domain.StatusActive,
	}
	f.accounts = append(f.accounts, account)
	return account, nil
}

func (f *fakeAPI) UpdateAccount(_ context.Context, account domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, account)
	return nil
}

func (f *fakeAPI) DeleteAccount(_ context.Context, id domain.AccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.accounts[:0]
	for _, account := range f.accounts {
		if account.ID != id {
			kept = append(kept, account)
		}
	}
	f.accounts = kept
	return nil
}

func (f *fakeAPI) DeleteAccountsBatch(_ context.Context, _ []domain.AccountID) (ports.BatchDeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteBatchErr != nil {
		return ports.BatchDeleteResult{}, f.deleteBatchErr
	}
	return f.deleteBatchResult, nil
}

func (f *fakeAPI) RefreshToken(_ context.Context, id domain.AccountID) (ports.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refreshCalls = append(f.refreshCalls, id)
	if f.refreshErr != nil {
		return ports.RefreshResult{}, f.refreshErr
	}
	result, ok := f.refreshResults[id]
	if !ok {
		return ports.RefreshResult{Error: "unknown account"}, nil
	}
	return result, nil
}

func (f *fakeAPI) BatchRefreshTokens(_ context.Context, ids []domain.AccountID, concurrency int) (ports.BatchRefreshResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchCalls = append(f.batchCalls, ids)
	f.batchConcurrency = append(f.batchConcurrency, concurrency)
	if f.batchErr != nil {
		return ports.BatchRefreshResponse{}, f.batchErr
	}
	return f.batchResponse, nil
}

func (f *fakeAPI) updatedAccounts() []domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Account, len(f.updated))
	copy(out, f.updated)
	return out
}

type fakeSettings struct {
	mu    sync.Mutex
	sort  domain.SortConfig
	order []domain.AccountID

	sortErr  error
	orderErr error
	saveErr  error
}

var _ ports.Settings = (*fakeSettings)(nil)

func (f *fakeSettings) SortConfig(_ context.Context) (domain.SortConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sortErr != nil {
		return domain.SortConfig{}, f.sortErr
	}
	if f.sort == (domain.SortConfig{}) {
		return domain.DefaultSortConfig(), nil
	}
	return f.sort, nil
}

func (f *fakeSettings) SaveSortConfig(_ context.Context, cfg domain.SortConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.sort = cfg
	return nil
}

func (f *fakeSettings) AccountOrder(_ context.Context) ([]domain.AccountID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func (f *fakeSettings) SaveAccountOrder(_ context.Context, ids []domain.AccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.order = ids
	return nil
}

type fakeOplog struct {
	mu      sync.Mutex
	entries []domain.OperationLog
	err     error
}

var _ ports.OperationLogStore = (*fakeOplog)(nil)

func (f *fakeOplog) Append(_ context.Context, entry domain.OperationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeOplog) Recent(_ context.Context, limit int) ([]domain.OperationLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]domain.OperationLog, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeOplog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(api *fakeAPI) (*Store, *fakeSettings, *fakeOplog) {
	settings := &fakeSettings{}
	oplog := &fakeOplog{}
	store := NewStore(api, settings, oplog, fixedClock{now: testNow}, zerolog.Nop())
	return store, settings, oplog
}

func testAccount(id, email string) domain.Account {
	return domain.Account{
		ID:             domain.AccountID(id),
		Email:          email,
		Nickname:       email,
		Status:         domain.StatusActive,
		TokenExpiresAt: timePtr(testNow.Add(2 * time.Hour)),
		CreatedAt:      testNow.Add(-24 * time.Hour),
	}
}

package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

// Pagination is caller-controlled view state. Changing the filter or the
// page size resets CurrentPage to 1; nothing else touches it.
type Pagination struct {
	CurrentPage int
	PageSize    int
	PageSizes   []int
}

func DefaultPagination() Pagination {
	return Pagination{
		CurrentPage: 1,
		PageSize:    20,
		PageSizes:   []int{10, 20, 50, 100},
	}
}

// Store owns the canonical in-memory account collection, the selection set
// and the view state. All mutations go through its methods; other components
// receive copies and never touch the slice directly.
type Store struct {
	api      ports.AccountAPI
	settings ports.Settings
	oplog    ports.OperationLogStore
	clock    ports.Clock
	logger   zerolog.Logger

	mu         sync.RWMutex
	accounts   []domain.Account
	selected   map[domain.AccountID]struct{}
	filter     domain.Filter
	pagination Pagination
	sortConfig domain.SortConfig
	lastError  string
}

func NewStore(api ports.AccountAPI, settings ports.Settings, oplog ports.OperationLogStore, clock ports.Clock, logger zerolog.Logger) *Store {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Store{
		api:        api,
		settings:   settings,
		oplog:      oplog,
		clock:      clock,
		logger:     logger,
		selected:   map[domain.AccountID]struct{}{},
		pagination: DefaultPagination(),
		sortConfig: domain.DefaultSortConfig(),
	}
}

// Load replaces the collection with the remote authority's account list,
// applying the persisted manual ordering when one exists.
func (s *Store) Load(ctx context.Context) error {
	accounts, err := s.api.ListAccounts(ctx)
	if err != nil {
		s.setError(err.Error())
		return fmt.Errorf("list accounts: %w", err)
	}

	order, err := s.settings.AccountOrder(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load account order")
	} else if len(order) > 0 {
		accounts = reorderByIDs(accounts, order)
	}

	s.mu.Lock()
	s.accounts = accounts
	s.lastError = ""
	s.pruneSelectionLocked()
	s.mu.Unlock()

	return nil
}

// Add creates the account remotely and appends it to the collection.
func (s *Store) Add(ctx context.Context, fields ports.NewAccount) (domain.Account, error) {
	account, err := s.api.CreateAccount(ctx, fields)
	if err != nil {
		s.setError(err.Error())
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.mu.Lock()
	s.accounts = append(s.accounts, account)
	s.lastError = ""
	s.mu.Unlock()

	s.appendLog(ctx, domain.OperationLog{
		Type:         domain.OpAddAccount,
		Status:       domain.OpSuccess,
		Message:      fmt.Sprintf("added account %s", account.Email),
		AccountID:    account.ID,
		AccountEmail: account.Email,
	})

	return account, nil
}

// Update persists the account remotely, then replaces the collection entry.
func (s *Store) Update(ctx context.Context, account domain.Account) error {
	if err := s.api.UpdateAccount(ctx, account); err != nil {
		s.setError(err.Error())
		return fmt.Errorf("update account: %w", err)
	}

	s.ApplyLocal(account)
	return nil
}

// ApplyLocal replaces the collection entry for account.ID without touching
// the remote authority. Unknown ids are ignored.
func (s *Store) ApplyLocal(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].ID == account.ID {
			s.accounts[i] = account
			return
		}
	}
}

// ApplyUpdates replaces every collection entry with a pending value in one
// pass. Used by the coalescing queue so a burst of refreshes costs a single
// collection mutation.
func (s *Store) ApplyUpdates(updates map[domain.AccountID]domain.Account) {
	if len(updates) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if updated, ok := updates[s.accounts[i].ID]; ok {
			s.accounts[i] = updated
		}
	}
}

// Delete removes the account remotely and locally, pruning the selection in
// the same operation.
func (s *Store) Delete(ctx context.Context, id domain.AccountID) error {
	account, _ := s.ByID(id)

	if err := s.api.DeleteAccount(ctx, id); err != nil {
		s.setError(err.Error())
		return fmt.Errorf("delete account: %w", err)
	}

	s.mu.Lock()
	kept := s.accounts[:0]
	for _, existing := range s.accounts {
		if existing.ID != id {
			kept = append(kept, existing)
		}
	}
	s.accounts = kept
	delete(s.selected, id)
	s.lastError = ""
	s.mu.Unlock()

	s.appendLog(ctx, domain.OperationLog{
		Type:         domain.OpDeleteAccount,
		Status:       domain.OpSuccess,
		Message:      fmt.Sprintf("deleted account %s", account.Email),
		AccountID:    id,
		AccountEmail: account.Email,
	})

	return nil
}

// DeleteSelected removes every selected account through the batch endpoint.
// Accounts the remote side failed to delete stay in the collection; the
// selection is cleared either way.
func (s *Store) DeleteSelected(ctx context.Context) (ports.BatchDeleteResult, error) {
	s.mu.RLock()
	ids := make([]domain.AccountID, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	if len(ids) == 0 {
		return ports.BatchDeleteResult{}, nil
	}

	result, err := s.api.DeleteAccountsBatch(ctx, ids)
	if err != nil {
		s.setError(err.Error())
		return ports.BatchDeleteResult{}, fmt.Errorf("delete accounts batch: %w", err)
	}

	failed := map[domain.AccountID]struct{}{}
	for _, id := range result.FailedIDs {
		failed[id] = struct{}{}
	}
	requested := map[domain.AccountID]struct{}{}
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.accounts[:0]
	for _, account := range s.accounts {
		_, wasRequested := requested[account.ID]
		_, deleteFailed := failed[account.ID]
		if !wasRequested || deleteFailed {
			kept = append(kept, account)
		}
	}
	s.accounts = kept
	s.selected = map[domain.AccountID]struct{}{}
	s.lastError = ""
	s.mu.Unlock()

	s.appendLog(ctx, domain.OperationLog{
		Type:    domain.OpBatchOperation,
		Status:  batchStatus(len(result.FailedIDs)),
		Message: fmt.Sprintf("batch delete: %d ok, %d failed", len(ids)-len(result.FailedIDs), len(result.FailedIDs)),
	})

	return result, nil
}

func (s *Store) ToggleSelection(id domain.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

// SelectAll selects every account matching the current filter.
func (s *Store) SelectAll() {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if s.filter.Matches(account, now) {
			s.selected[account.ID] = struct{}{}
		}
	}
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[domain.AccountID]struct{}{}
}

func (s *Store) SetFilter(filter domain.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	s.pagination.CurrentPage = 1
}

func (s *Store) ClearFilter() {
	s.SetFilter(domain.Filter{})
}

func (s *Store) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagination.CurrentPage = page
}

func (s *Store) SetPageSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagination.PageSize = size
	s.pagination.CurrentPage = 1
}

// LoadSortConfig pulls the persisted sort configuration into the store.
func (s *Store) LoadSortConfig(ctx context.Context) error {
	cfg, err := s.settings.SortConfig(ctx)
	if err != nil {
		return fmt.Errorf("load sort config: %w", err)
	}

	s.mu.Lock()
	s.sortConfig = cfg
	s.mu.Unlock()
	return nil
}

// SetSortConfig persists the configuration and re-sorts the collection.
func (s *Store) SetSortConfig(ctx context.Context, field domain.SortField, direction domain.SortDirection) error {
	if !field.Valid() {
		return fmt.Errorf("unsupported sort field %q", field)
	}
	if !direction.Valid() {
		return fmt.Errorf("unsupported sort direction %q", direction)
	}

	cfg := domain.SortConfig{Field: field, Direction: direction}
	if err := s.settings.SaveSortConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save sort config: %w", err)
	}

	s.mu.Lock()
	s.sortConfig = cfg
	s.mu.Unlock()

	s.ApplySorting()

	// The sorted order becomes the persisted collection order, so later loads
	// come back in the same sequence until the user reorders manually.
	sorted := s.Snapshot()
	ids := make([]domain.AccountID, 0, len(sorted))
	for _, account := range sorted {
		ids = append(ids, account.ID)
	}
	if err := s.settings.SaveAccountOrder(ctx, ids); err != nil {
		return fmt.Errorf("save account order: %w", err)
	}

	return nil
}

// ApplySorting reorders the collection by the current sort configuration.
func (s *Store) ApplySorting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = domain.SortAccounts(s.accounts, s.sortConfig)
}

// UpdateAccountsOrder persists a manual ordering and reorders the collection
// to match. Accounts missing from ids keep their relative order at the end.
func (s *Store) UpdateAccountsOrder(ctx context.Context, ids []domain.AccountID) error {
	if err := s.settings.SaveAccountOrder(ctx, ids); err != nil {
		s.setError(err.Error())
		return fmt.Errorf("save account order: %w", err)
	}

	s.mu.Lock()
	s.accounts = reorderByIDs(s.accounts, ids)
	s.mu.Unlock()
	return nil
}

// ByID returns a copy of the account, or false when the id is unknown.
func (s *Store) ByID(id domain.AccountID) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.ID == id {
			return account, true
		}
	}
	return domain.Account{}, false
}

// Snapshot returns a copy of the full collection in its current order.
func (s *Store) Snapshot() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]domain.Account, len(s.accounts))
	copy(snapshot, s.accounts)
	return snapshot
}

// LastError returns the message recorded by the most recent failed
// interactive operation, empty after a success.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// pruneSelectionLocked drops selected ids no longer present. Callers hold mu.
func (s *Store) pruneSelectionLocked() {
	present := map[domain.AccountID]struct{}{}
	for _, account := range s.accounts {
		present[account.ID] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// appendLog writes an audit entry; failures are logged, never surfaced.
func (s *Store) appendLog(ctx context.Context, entry domain.OperationLog) {
	if s.oplog == nil {
		return
	}

	entry.CreatedAt = s.clock.Now()
	if err := s.oplog.Append(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("op", string(entry.Type)).Msg("append operation log")
	}
}

func batchStatus(failed int) domain.OperationStatus {
	if failed > 0 {
		return domain.OpFailed
	}
	return domain.OpSuccess
}

func reorderByIDs(accounts []domain.Account, ids []domain.AccountID) []domain.Account {
	byID := make(map[domain.AccountID]domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}

	ordered := make([]domain.Account, 0, len(accounts))
	placed := map[domain.AccountID]struct{}{}
	for _, id := range ids {
		if account, ok := byID[id]; ok {
			ordered = append(ordered, account)
			placed[id] = struct{}{}
		}
	}
	for _, account := range accounts {
		if _, ok := placed[account.ID]; !ok {
			ordered = append(ordered, account)
		}
	}

	return ordered
}

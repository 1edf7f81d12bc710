package application

import (
	"sort"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

// Derived views. Every read recomputes from the current collection: account
// counts stay in the hundreds, so a full pass per read is cheaper than
// keeping caches honest.

// FilteredAccounts returns the accounts matching the current filter, in
// collection order.
func (s *Store) FilteredAccounts() []domain.Account {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		if s.filter.Matches(account, now) {
			filtered = append(filtered, account)
		}
	}
	return filtered
}

// Page returns the current page of the filtered collection.
func (s *Store) Page() []domain.Account {
	filtered := s.FilteredAccounts()

	s.mu.RLock()
	p := s.pagination
	s.mu.RUnlock()

	start := (p.CurrentPage - 1) * p.PageSize
	if start < 0 || start >= len(filtered) {
		return nil
	}
	end := start + p.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

func (s *Store) TotalCount() int {
	return len(s.FilteredAccounts())
}

func (s *Store) TotalPages() int {
	s.mu.RLock()
	size := s.pagination.PageSize
	s.mu.RUnlock()

	if size <= 0 {
		return 0
	}
	return (s.TotalCount() + size - 1) / size
}

func (s *Store) Filter() domain.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Store) Pagination() Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

func (s *Store) SortConfig() domain.SortConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortConfig
}

// SelectedAccounts returns the selected accounts in collection order.
func (s *Store) SelectedAccounts() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := make([]domain.Account, 0, len(s.selected))
	for _, account := range s.accounts {
		if _, ok := s.selected[account.ID]; ok {
			selected = append(selected, account)
		}
	}
	return selected
}

// ActiveCount counts accounts whose raw status is active.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, account := range s.accounts {
		if account.Status == domain.StatusActive {
			count++
		}
	}
	return count
}

// AllTags returns every tag in use, sorted and deduplicated. Computed over
// the full collection, not the filtered view.
func (s *Store) AllTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, account := range s.accounts {
		for _, tag := range account.Tags {
			seen[tag] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// AllPlanNames returns every plan name in use, sorted and deduplicated.
func (s *Store) AllPlanNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, account := range s.accounts {
		if account.PlanName != "" {
			seen[account.PlanName] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// AllDomains returns every email domain in use, sorted and deduplicated.
func (s *Store) AllDomains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, account := range s.accounts {
		if domainPart := account.EmailDomain(); domainPart != "" {
			seen[domainPart] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

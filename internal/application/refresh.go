package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

// RefreshLookahead selects tokens that will expire soon, not only ones
// already expired.
const RefreshLookahead = 5 * time.Minute

type RefreshOutcome struct {
	ID      domain.AccountID
	Email   string
	Success bool
	Error   string
}

type BatchRefreshSummary struct {
	Total   int
	Success int
	Failed  int
	Results []RefreshOutcome
}

// Refresher drives token refresh against the remote authority. Per-account
// in-flight state is a guarded map mutated only through tryMark/unmark, so a
// second caller racing on the same id backs off instead of doubling the
// remote call.
type Refresher struct {
	store  *Store
	queue  *UpdateQueue
	api    ports.AccountAPI
	clock  ports.Clock
	logger zerolog.Logger

	mu       sync.Mutex
	inFlight map[domain.AccountID]struct{}
}

func NewRefresher(store *Store, queue *UpdateQueue, api ports.AccountAPI, clock ports.Clock, logger zerolog.Logger) *Refresher {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Refresher{
		store:    store,
		queue:    queue,
		api:      api,
		clock:    clock,
		logger:   logger,
		inFlight: map[domain.AccountID]struct{}{},
	}
}

// tryMark marks id in-flight and reports whether this caller won the slot.
func (r *Refresher) tryMark(id domain.AccountID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[id]; ok {
		return false
	}
	r.inFlight[id] = struct{}{}
	return true
}

func (r *Refresher) unmark(ids ...domain.AccountID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		delete(r.inFlight, id)
	}
}

// InFlight reports whether id is currently being refreshed.
func (r *Refresher) InFlight(id domain.AccountID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.inFlight[id]
	return ok
}

// TokenExpiredOrExpiring reports whether the token is expired or will expire
// within the lookahead window. A missing expiry is always due.
func TokenExpiredOrExpiring(account domain.Account, now time.Time) bool {
	if account.TokenExpiresAt == nil {
		return true
	}
	return account.TokenExpiresAt.Before(now.Add(RefreshLookahead))
}

// NeedsRefresh scans the collection for accounts due a refresh: not
// inactive, not errored, not already in-flight, token expired or expiring.
func (r *Refresher) NeedsRefresh() []domain.Account {
	now := r.clock.Now()

	due := make([]domain.Account, 0)
	for _, account := range r.store.Snapshot() {
		if account.Status == domain.StatusInactive || account.Status == domain.StatusError {
			continue
		}
		if r.InFlight(account.ID) {
			continue
		}
		if TokenExpiredOrExpiring(account, now) {
			due = append(due, account)
		}
	}
	return due
}

// RefreshOne re-authenticates a single account. On success only the fields
// the remote supplied are merged and the status forced to active; on failure
// the status flips to error with everything else untouched. The result is
// written directly or routed through the coalescing queue depending on
// useQueue. The in-flight mark is removed on every path.
func (r *Refresher) RefreshOne(ctx context.Context, account domain.Account, useQueue bool) RefreshOutcome {
	if !r.tryMark(account.ID) {
		return RefreshOutcome{ID: account.ID, Email: account.Email, Error: "refresh already in progress"}
	}
	defer r.unmark(account.ID)

	result, err := r.api.RefreshToken(ctx, account.ID)
	if err != nil {
		r.applyFailure(ctx, account, err.Error(), useQueue)
		return RefreshOutcome{ID: account.ID, Email: account.Email, Error: err.Error()}
	}
	if !result.Success || result.Data == nil {
		msg := result.Error
		if msg == "" {
			msg = "token refresh failed"
		}
		r.applyFailure(ctx, account, msg, useQueue)
		return RefreshOutcome{ID: account.ID, Email: account.Email, Error: msg}
	}

	updated := mergeRefreshData(account, *result.Data, r.clock.Now())
	if err := r.apply(ctx, updated, useQueue); err != nil {
		r.logger.Warn().Err(err).Str("email", account.Email).Msg("persist refreshed account")
		return RefreshOutcome{ID: account.ID, Email: account.Email, Error: err.Error()}
	}

	r.store.appendLog(ctx, domain.OperationLog{
		Type:         domain.OpRefreshToken,
		Status:       domain.OpSuccess,
		Message:      "token refreshed",
		AccountID:    account.ID,
		AccountEmail: account.Email,
	})

	r.logger.Debug().Str("email", account.Email).Msg("token refreshed")
	return RefreshOutcome{ID: account.ID, Email: account.Email, Success: true}
}

// RefreshBatch refreshes the targets through the remote batch endpoint. All
// targets are marked in-flight up front; ids another caller already holds
// are dropped from the batch. Results are applied directly to the collection
// so they are visible as soon as the call returns; the queue is not involved
// because the batch itself already coalesces. The ceiling is advisory and
// forwarded to the remote side, which owns true fan-out control.
func (r *Refresher) RefreshBatch(ctx context.Context, targets []domain.Account, limit int) (BatchRefreshSummary, error) {
	marked := make([]domain.Account, 0, len(targets))
	for _, target := range targets {
		if r.tryMark(target.ID) {
			marked = append(marked, target)
		}
	}

	if len(marked) == 0 {
		return BatchRefreshSummary{Results: []RefreshOutcome{}}, nil
	}

	ids := make([]domain.AccountID, 0, len(marked))
	for _, target := range marked {
		ids = append(ids, target.ID)
	}
	defer r.unmark(ids...)

	if limit <= 0 {
		limit = len(ids)
	}

	resp, err := r.api.BatchRefreshTokens(ctx, ids, limit)
	if err != nil {
		return BatchRefreshSummary{}, fmt.Errorf("batch refresh tokens: %w", err)
	}

	byID := make(map[domain.AccountID]ports.BatchRefreshItem, len(resp.Results))
	for _, item := range resp.Results {
		byID[item.ID] = item
	}

	now := r.clock.Now()
	summary := BatchRefreshSummary{Total: len(marked)}
	for _, target := range marked {
		current, ok := r.store.ByID(target.ID)
		if !ok {
			current = target
		}

		item, answered := byID[target.ID]
		if answered && item.Success && item.Data != nil {
			r.store.ApplyLocal(mergeRefreshData(current, *item.Data, now))
			summary.Success++
			summary.Results = append(summary.Results, RefreshOutcome{ID: target.ID, Email: target.Email, Success: true})
			continue
		}

		msg := item.Error
		if !answered {
			msg = "no result returned for account"
		} else if msg == "" {
			msg = "token refresh failed"
		}
		current.Status = domain.StatusError
		current.StatusMessage = msg
		r.store.ApplyLocal(current)
		summary.Failed++
		summary.Results = append(summary.Results, RefreshOutcome{ID: target.ID, Email: target.Email, Error: msg})
	}

	r.store.appendLog(ctx, domain.OperationLog{
		Type:    domain.OpBatchOperation,
		Status:  batchStatus(summary.Failed),
		Message: fmt.Sprintf("batch refresh: %d ok, %d failed", summary.Success, summary.Failed),
	})

	r.logger.Info().
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("failed", summary.Failed).
		Msg("batch refresh finished")

	return summary, nil
}

func (r *Refresher) apply(ctx context.Context, account domain.Account, useQueue bool) error {
	if useQueue {
		r.queue.Enqueue(account)
		return nil
	}
	return r.store.Update(ctx, account)
}

func (r *Refresher) applyFailure(ctx context.Context, account domain.Account, msg string, useQueue bool) {
	account.Status = domain.StatusError
	account.StatusMessage = msg
	if err := r.apply(ctx, account, useQueue); err != nil {
		r.logger.Warn().Err(err).Str("email", account.Email).Msg("persist failed refresh state")
	}

	r.store.appendLog(ctx, domain.OperationLog{
		Type:         domain.OpRefreshToken,
		Status:       domain.OpFailed,
		Message:      msg,
		AccountID:    account.ID,
		AccountEmail: account.Email,
	})

	r.logger.Error().Str("email", account.Email).Str("reason", msg).Msg("token refresh failed")
}

// mergeRefreshData copies the account and overlays only the fields the
// remote actually reported. Both the single and the batch path go through
// here so the merge semantics cannot drift apart.
func mergeRefreshData(account domain.Account, data ports.RefreshData, now time.Time) domain.Account {
	updated := account

	if data.Token != "" {
		updated.Token = data.Token
	}
	if data.TokenExpiresAt != nil {
		updated.TokenExpiresAt = data.TokenExpiresAt
	}
	if data.PlanName != "" {
		updated.PlanName = data.PlanName
	}
	if data.UsedQuota != nil {
		updated.UsedQuota = data.UsedQuota
	}
	if data.TotalQuota != nil {
		updated.TotalQuota = data.TotalQuota
	}
	if data.SubscriptionActive != nil {
		updated.SubscriptionActive = data.SubscriptionActive
	}
	if data.SubscriptionExpiresAt != nil {
		updated.SubscriptionExpiresAt = data.SubscriptionExpiresAt
	} else if data.SubscriptionExpiresAtUnix > 0 {
		expiresAt := time.Unix(data.SubscriptionExpiresAtUnix, 0).UTC()
		updated.SubscriptionExpiresAt = &expiresAt
	}
	if data.IsDisabled != nil {
		updated.IsDisabled = data.IsDisabled
	}
	if data.IsTeamOwner != nil {
		updated.IsTeamOwner = data.IsTeamOwner
	}

	if data.LastQuotaUpdate != nil {
		updated.LastQuotaUpdate = data.LastQuotaUpdate
	} else {
		updated.LastQuotaUpdate = &now
	}

	updated.Status = domain.StatusActive
	updated.StatusMessage = ""

	return updated
}

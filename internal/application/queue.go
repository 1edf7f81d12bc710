package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
	"github.com/rs/zerolog"
)

// DefaultFlushDelay is the debounce window for coalesced updates.
const DefaultFlushDelay = 300 * time.Millisecond

// UpdateQueue absorbs bursts of per-account writes into one collection
// mutation. Pending values are last-write-wins per id; a single owned timer
// is re-armed on every enqueue and fires a flush after a quiet period.
type UpdateQueue struct {
	store  *Store
	api    ports.AccountAPI
	logger zerolog.Logger
	delay  time.Duration

	mu      sync.Mutex
	pending map[domain.AccountID]domain.Account
	timer   *time.Timer
}

func NewUpdateQueue(store *Store, api ports.AccountAPI, logger zerolog.Logger, delay time.Duration) *UpdateQueue {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}

	return &UpdateQueue{
		store:   store,
		api:     api,
		logger:  logger,
		delay:   delay,
		pending: map[domain.AccountID]domain.Account{},
	}
}

// Enqueue records the pending value for account.ID, overwriting any earlier
// one, and restarts the debounce timer.
func (q *UpdateQueue) Enqueue(account domain.Account) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[account.ID] = account

	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.delay, q.Flush)
}

// Flush applies every pending value to the collection in one pass, then
// persists each flushed account remotely without blocking. A flush with an
// empty queue is a no-op. Persistence failures are logged only: the in-memory
// state is optimistic and the next refresh cycle retries naturally.
func (q *UpdateQueue) Flush() {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	updates := q.pending
	q.pending = map[domain.AccountID]domain.Account{}
	q.mu.Unlock()

	q.logger.Debug().Int("count", len(updates)).Msg("flushing coalesced account updates")
	q.store.ApplyUpdates(updates)

	for _, account := range updates {
		go func(account domain.Account) {
			if err := q.api.UpdateAccount(context.Background(), account); err != nil {
				q.logger.Error().Err(err).Str("email", account.Email).Msg("persist flushed account")
			}
		}(account)
	}
}

// Len reports the number of pending updates.
func (q *UpdateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

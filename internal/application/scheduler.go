package application

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultRefreshInterval = 10 * time.Minute
	DefaultConcurrentLimit = 3
)

// AutoRefreshConfig is the explicit, typed configuration for background
// refresh. Passed by value; there is no ambient settings lookup.
type AutoRefreshConfig struct {
	Enabled             bool
	Interval            time.Duration
	ConcurrentLimit     int
	UnlimitedConcurrent bool
}

func (c AutoRefreshConfig) withDefaults() AutoRefreshConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultRefreshInterval
	}
	if c.ConcurrentLimit <= 0 {
		c.ConcurrentLimit = DefaultConcurrentLimit
	}
	return c
}

// Scheduler periodically asks the refresher to re-authenticate whatever is
// due. Start performs one immediate check before arming the ticker; Stop is
// idempotent and only prevents future cycles, it never cancels a cycle
// already talking to the remote authority.
type Scheduler struct {
	refresher *Refresher
	cfg       AutoRefreshConfig
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(refresher *Refresher, cfg AutoRefreshConfig, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Start launches the refresh loop. It is a no-op when auto refresh is
// disabled or a loop is already running.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("auto refresh disabled")
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("auto refresh started")
	s.runOnce(loopCtx)

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				s.logger.Info().Msg("auto refresh stopped")
				return
			case <-ticker.C:
				s.runOnce(loopCtx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to wind down. Safe to call twice.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// runOnce is one "check and refresh expired tokens" cycle. Errors are logged
// and swallowed so the schedule never halts.
func (s *Scheduler) runOnce(ctx context.Context) {
	targets := s.refresher.NeedsRefresh()
	if len(targets) == 0 {
		return
	}

	limit := s.cfg.ConcurrentLimit
	if s.cfg.UnlimitedConcurrent {
		limit = len(targets)
	}

	s.logger.Info().Int("due", len(targets)).Int("concurrency", limit).Msg("refreshing expiring tokens")

	summary, err := s.refresher.RefreshBatch(ctx, targets, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled batch refresh")
		return
	}

	s.logger.Info().
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("failed", summary.Failed).
		Msg("scheduled refresh cycle complete")
}

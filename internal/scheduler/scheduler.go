package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/archive-bot-go/internal/server"
)

// SubscriberCounter counts the chats known to the bot
type SubscriberCounter interface {
	CountSubscribers(ctx context.Context) (int64, error)
}

// UsageReporter reports the bytes stored in the archive
type UsageReporter interface {
	Usage() (int64, error)
}

// Scheduler periodically refreshes the archive statistics exposed on /metrics
type Scheduler struct {
	counter  SubscriberCounter
	usage    UsageReporter
	interval time.Duration
	running  atomic.Bool
	mu       sync.Mutex // a refresh walks the whole archive, never run two at once
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(counter SubscriberCounter, usage UsageReporter, interval time.Duration) *Scheduler {
	return &Scheduler{
		counter:  counter,
		usage:    usage,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start refreshes the statistics once and then at every interval
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		log.Info().Msg("Scheduler is disabled")
		return
	}

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.executeRefresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("Scheduler started periodic execution")

	for {
		select {
		case <-ticker.C:
			s.executeRefresh(ctx)
		case <-s.stopCh:
			log.Info().Msg("Scheduler stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Scheduler context cancelled")
			return
		}
	}
}

// executeRefresh skips the trigger when a refresh is still running
func (s *Scheduler) executeRefresh(ctx context.Context) {
	if !s.TryRun(ctx) {
		log.Warn().Msg("Stats refresh already running, skipping this trigger")
	}
}

// RunOnce collects the statistics and publishes them
func (s *Scheduler) RunOnce(ctx context.Context) error {
	subscribers, err := s.counter.CountSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count subscribers: %w", err)
	}
	bytes, err := s.usage.Usage()
	if err != nil {
		return fmt.Errorf("failed to measure archive: %w", err)
	}

	server.UpdateArchiveStats(subscribers, bytes)
	log.Debug().
		Int64("subscribers", subscribers).
		Int64("bytes", bytes).
		Msg("Archive statistics refreshed")
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// IsRunning returns true if a refresh is currently running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// TryRun refreshes the statistics immediately.
// Returns false if a refresh is already running.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	startTime := time.Now()
	if err := s.RunOnce(ctx); err != nil {
		server.RecordError("stats")
		log.Error().Err(err).Msg("Stats refresh failed")
	}
	log.Debug().Dur("duration", time.Since(startTime)).Msg("Stats refresh completed")

	return true
}

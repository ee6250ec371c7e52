package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
)

const (
	DefaultInterval  = time.Minute
	DefaultBatchSize = 100
	sweepTimeout     = 30 * time.Second
)

// Waker releases snoozed items whose time has come
type Waker interface {
	WakeExpired(ctx context.Context, now time.Time, batchSize int) (domain.BatchResult, []*domain.KanbanItem, error)
}

// WakeNotifier tells users about items that just came back to their board
type WakeNotifier interface {
	NotifyWoken(ctx context.Context, items []*domain.KanbanItem)
}

// SnoozeScheduler sweeps expired snoozes on a fixed interval
type SnoozeScheduler struct {
	waker     Waker
	notifier  WakeNotifier
	interval  time.Duration
	batchSize int
	now       func() time.Time

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex
}

// NewSnoozeScheduler creates a new scheduler. notifier may be nil.
func NewSnoozeScheduler(waker Waker, notifier WakeNotifier, interval time.Duration, batchSize int) *SnoozeScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SnoozeScheduler{
		waker:     waker,
		notifier:  notifier,
		interval:  interval,
		batchSize: batchSize,
		now:       func() time.Time { return time.Now().UTC() },
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *SnoozeScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	log.Printf("[Snooze] Starting snooze scheduler (interval: %s, batch: %d)", s.interval, s.batchSize)

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.Sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				log.Println("[Snooze] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep
func (s *SnoozeScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
}

// Sweep runs one wake pass
func (s *SnoozeScheduler) Sweep() domain.BatchResult {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	result, woken, err := s.waker.WakeExpired(ctx, s.now(), s.batchSize)
	if err != nil {
		log.Printf("[Snooze] Sweep failed: %v", err)
		return result
	}
	if result.Succeeded == 0 && result.Failed == 0 {
		return result
	}

	log.Printf("[Snooze] Woke %d items (%d failed)", result.Succeeded, result.Failed)

	if s.notifier != nil && len(woken) > 0 {
		s.notifier.NotifyWoken(ctx, woken)
	}
	return result
}

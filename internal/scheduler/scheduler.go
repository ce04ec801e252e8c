package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateWaiting State = "waiting"
)

// Scheduler drives the periodic cycle with at-least-once-per-interval
// semantics across restarts. The durable run history decides whether startup
// owes an immediate catch-up run; after that the next fire always anchors to
// the completion of the previous run, not to a wall-clock grid.
type Scheduler struct {
	Interval time.Duration
	Run      func(ctx context.Context) error

	running atomic.Bool
	state   atomic.Value // State
}

// InitialDelay computes how long to wait before the first run. No completed
// run on record means infinite elapsed time: run now. An elapsed time of
// exactly one interval counts as due.
func InitialDelay(last *domain.RunRecord, interval time.Duration, now time.Time) time.Duration {
	if last == nil {
		return 0
	}
	elapsed := now.Sub(last.EndedAt)
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

func (s *Scheduler) State() State {
	if v := s.state.Load(); v != nil {
		return v.(State)
	}
	return StateIdle
}

// Start blocks until ctx is cancelled. initialDelay usually comes from
// InitialDelay over the last completed cycle record.
func (s *Scheduler) Start(ctx context.Context, initialDelay time.Duration) {
	if initialDelay <= 0 {
		log.Printf("[scheduler] interval elapsed while down, running immediately")
	} else {
		log.Printf("[scheduler] next run in %s", initialDelay.Round(time.Second))
	}

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()
	s.state.Store(StateWaiting)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[scheduler] shutting down")
			s.state.Store(StateIdle)
			return
		case <-timer.C:
			s.fire(ctx)
			// fire is synchronous, so this anchors the next run to the
			// completion time of the one that just ended
			timer.Reset(s.Interval)
			log.Printf("[scheduler] next run in %s", s.Interval.Round(time.Second))
		}
	}
}

// TriggerNow runs a cycle out of band (manual trigger). Returns false when a
// run is already active; the trigger is dropped, never queued.
func (s *Scheduler) TriggerNow(ctx context.Context) bool {
	if s.running.Load() {
		return false
	}
	go s.fire(ctx)
	return true
}

func (s *Scheduler) fire(ctx context.Context) {
	// at most one active run; an overlapping trigger is dropped
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[scheduler] run already in progress, dropping trigger")
		return
	}
	defer s.running.Store(false)

	s.state.Store(StateRunning)
	defer s.state.Store(StateWaiting)

	if err := s.Run(ctx); err != nil {
		log.Printf("[scheduler] run error: %v", err)
	}
}

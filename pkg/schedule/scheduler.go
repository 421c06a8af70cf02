// Package schedule serializes passes: at most one in flight, periodic
// rescheduling, and manual triggers folded into the same guard.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PassFunc runs one full pass. force is true only when the configured
// one-shot force applies (the very first pass of the process).
type PassFunc func(ctx context.Context, force bool) error

// Scheduler owns the run state explicitly: an Idle/Running flag and the
// pending timer handle. Triggers while a pass is running are dropped, not
// queued; the guard is check-and-skip, never a wait.
type Scheduler struct {
	pass       PassFunc
	interval   time.Duration // <=0 disables rescheduling
	forceFirst bool

	mu        sync.Mutex
	running   bool
	closed    bool
	firstPass bool
	timer     *time.Timer
	baseCtx   context.Context

	wg sync.WaitGroup
}

// New creates a scheduler. interval is the delay between the end of one
// pass and the start of the next; forceFirst applies the configured force
// flag to the first pass only.
func New(pass PassFunc, interval time.Duration, forceFirst bool) *Scheduler {
	return &Scheduler{
		pass:       pass,
		interval:   interval,
		forceFirst: forceFirst,
		firstPass:  true,
		baseCtx:    context.Background(),
	}
}

// Start records the base context used by timer-fired passes and triggers
// the initial pass immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	s.Trigger(ctx)
}

// Trigger attempts the Idle -> Running transition and, when it wins, runs a
// full pass on the calling goroutine. It returns false when a pass is
// already in flight or the scheduler is shut down. Any pending timer is
// cancelled first; the next timer is armed only after the pass ends, so
// intervals never stack and missed ticks are not caught up.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.running {
		s.mu.Unlock()
		logger.Info().Msg("already running, trigger ignored")
		return false
	}
	s.running = true
	force := s.forceFirst && s.firstPass
	s.firstPass = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	if err := s.pass(ctx, force); err != nil {
		logger.Error().Err(err).Msg("pass failed")
	}

	s.mu.Lock()
	s.running = false
	if !s.closed && s.interval > 0 {
		logger.Debug().Dur("interval", s.interval).Msg("scheduling next pass")
		s.timer = time.AfterFunc(s.interval, s.timerFired)
	}
	s.mu.Unlock()
	return true
}

func (s *Scheduler) timerFired() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	s.Trigger(ctx)
}

// Running reports whether a pass is currently in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown stops rescheduling, refuses new triggers, and waits for the
// in-flight pass, if any, to finish. An already-dispatched transform is
// never interrupted.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

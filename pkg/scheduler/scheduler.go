// Package scheduler drives the polling cycles on a fixed wall-clock
// cadence.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"marketpulse/pkg/logger"
)

// State is the scheduler's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Scheduler fires one immediate startup cycle, then one cycle per
// interval, anchored to the start of the previous cycle. The stop
// signal is honored between cycles; an in-flight cycle always
// finishes (adapter timeouts bound the delay).
type Scheduler struct {
	interval time.Duration
	clock    Clock
	log      logger.Logger
	state    atomic.Int32
}

// New creates a scheduler with the given cadence.
func New(interval time.Duration, clock Clock, log logger.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		clock:    clock,
		log:      log,
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(state State) {
	s.state.Store(int32(state))
}

// Run executes cycles until ctx is canceled. It returns nil on a
// graceful stop. The cycle callback receives a context detached from
// the stop signal so a cycle already started runs to completion.
func (s *Scheduler) Run(ctx context.Context, cycle func(context.Context)) error {
	defer s.setState(StateIdle)

	next := s.clock.Now() // the startup cycle fires immediately

	for {
		if wait := next.Sub(s.clock.Now()); wait > 0 {
			s.setState(StateSleeping)

			select {
			case <-s.clock.After(wait):
			case <-ctx.Done():
				s.log.Info("scheduler stopped while sleeping")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		default:
		}

		s.setState(StateRunning)
		start := s.clock.Now()
		cycle(context.WithoutCancel(ctx))

		// Anchor the cadence to cycle starts so variable cycle
		// latency does not drift the schedule. An overrunning cycle
		// makes the next one fire immediately.
		next = start.Add(s.interval)
	}
}

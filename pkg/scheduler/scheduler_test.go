package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketpulse/pkg/logger"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}

	c.waiters = append(c.waiters, fakeWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}

func (c *fakeClock) waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters) > 0
}

func TestRun_StartupCycleThenFixedCadence(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	sched := New(5*time.Minute, clock, logger.Nop())

	var (
		mu    sync.Mutex
		fires []time.Time
	)
	cycleDone := make(chan struct{}, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, func(context.Context) {
			mu.Lock()
			fires = append(fires, clock.Now())
			mu.Unlock()
			cycleDone <- struct{}{}
		})
	}()

	// Startup cycle fires without any clock advance.
	<-cycleDone

	const cycles = 10
	for i := 0; i < cycles; i++ {
		require.Eventually(t, clock.waiting, time.Second, time.Millisecond)
		clock.Advance(5 * time.Minute)
		<-cycleDone
	}

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fires, cycles+1)
	for i, fired := range fires {
		require.Equal(t, start.Add(time.Duration(i)*5*time.Minute), fired)
	}
}

func TestRun_StopWhileSleeping(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	sched := New(time.Hour, clock, logger.Nop())

	cycleDone := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, func(context.Context) {
			cycleDone <- struct{}{}
		})
	}()

	<-cycleDone
	require.Eventually(t, func() bool {
		return sched.State() == StateSleeping
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, StateIdle, sched.State())
}

func TestRun_InFlightCycleFinishes(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	sched := New(time.Hour, clock, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan bool, 1)

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, func(cycleCtx context.Context) {
			cancel() // stop arrives mid-cycle
			select {
			case <-cycleCtx.Done():
				finished <- false
			case <-time.After(20 * time.Millisecond):
				finished <- true
			}
		})
	}()

	require.True(t, <-finished, "cycle context must outlive the stop signal")
	require.NoError(t, <-done)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "sleeping", StateSleeping.String())
}

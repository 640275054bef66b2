package marketpulse

import (
	"marketpulse/pkg/core"
	"marketpulse/pkg/scheduler"
)

// Option is a functional option for configuring a Worker.
type Option func(*Worker)

// WithNotifier replaces the Telegram sink. The snapshot command uses
// this to suppress delivery.
func WithNotifier(notifier core.Notifier) Option {
	return func(w *Worker) {
		w.notifier = notifier
	}
}

// WithAdapters replaces the configuration-derived adapter set.
func WithAdapters(adapters ...core.Adapter) Option {
	return func(w *Worker) {
		w.adapters = adapters
	}
}

// WithClock replaces the wall clock, enabling deterministic cycle
// timing in tests.
func WithClock(clock scheduler.Clock) Option {
	return func(w *Worker) {
		w.clock = clock
	}
}

// Package snapshot assembles per-cycle snapshots from the configured
// source adapters.
package snapshot

import (
	"context"
	"sync"
	"time"

	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"
)

// Aggregator fans out to every adapter for a symbol and merges the
// settled results. One adapter failing, timing out or panicking never
// affects the others.
type Aggregator struct {
	adapters []core.Adapter
	timeout  time.Duration
	log      logger.Logger
}

// NewAggregator creates an aggregator over a fixed adapter list. The
// timeout bounds each individual adapter call.
func NewAggregator(adapters []core.Adapter, timeout time.Duration, log logger.Logger) *Aggregator {
	return &Aggregator{
		adapters: adapters,
		timeout:  timeout,
		log:      log,
	}
}

// Sources returns the configured source names in adapter order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.adapters))
	for i, adapter := range a.adapters {
		names[i] = adapter.Name()
	}
	return names
}

// Collect runs every adapter concurrently and waits for all of them
// to settle. The returned snapshot has exactly one entry per adapter.
func (a *Aggregator) Collect(ctx context.Context, symbol string) core.Snapshot {
	snapshot := core.Snapshot{
		Symbol:  symbol,
		At:      time.Now().UTC(),
		Results: make(map[string]core.SourceResult, len(a.adapters)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, adapter := range a.adapters {
		wg.Add(1)
		go func(adapter core.Adapter) {
			defer wg.Done()

			result := a.fetchOne(ctx, adapter, symbol)

			mu.Lock()
			snapshot.Results[adapter.Name()] = result
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()
	return snapshot
}

// fetchOne runs a single adapter under the per-adapter timeout,
// converting every failure mode, panics included, into a classified
// result.
func (a *Aggregator) fetchOne(ctx context.Context, adapter core.Adapter, symbol string) (result core.SourceResult) {
	start := time.Now()
	result = core.SourceResult{Source: adapter.Name()}

	defer func() {
		result.Elapsed = time.Since(start)

		if r := recover(); r != nil {
			a.log.WithField("source", adapter.Name()).Errorf("adapter panic: %v", r)
			result.Report = nil
			result.Err = core.NewFetchError(core.ErrInvalidData, "adapter panic: %v", r)
		}

		if result.Err != nil {
			a.log.WithField("source", adapter.Name()).
				WithField("symbol", symbol).
				Warnf("fetch failed: %v", result.Err)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	report, err := adapter.Fetch(fetchCtx, symbol)
	if err != nil {
		result.Err = core.Classify(err)
		return result
	}

	result.Report = report
	return result
}

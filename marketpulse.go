// Package marketpulse wires the snapshot worker together: market data
// adapters, per-cycle aggregation, message formatting, Telegram
// delivery and the polling scheduler.
package marketpulse

import (
	"context"
	"fmt"
	"sync"

	"marketpulse/internal/config"
	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/market/bias"
	"marketpulse/pkg/market/binance"
	"marketpulse/pkg/notification"
	"marketpulse/pkg/scheduler"
	"marketpulse/pkg/snapshot"
)

// Worker is the long-running snapshot poller.
type Worker struct {
	cfg        *config.Config
	log        logger.Logger
	clock      scheduler.Clock
	adapters   []core.Adapter
	aggregator *snapshot.Aggregator
	notifier   core.Notifier
	sched      *scheduler.Scheduler
}

// NewWorker assembles a worker from the configuration. The adapter
// set is resolved once here: open interest and bias are included only
// when configured, and the list is fixed for the process lifetime.
func NewWorker(cfg *config.Config, log logger.Logger, options ...Option) (*Worker, error) {
	w := &Worker{
		cfg:   cfg,
		log:   log,
		clock: scheduler.NewRealClock(),
	}

	for _, option := range options {
		option(w)
	}

	if w.adapters == nil {
		w.adapters = buildAdapters(cfg, log)
	}

	if w.notifier == nil {
		notifier, err := notification.NewTelegram(
			cfg.Telegram.Token,
			cfg.Telegram.ChatID,
			log,
			notification.WithMaxAttempts(cfg.Telegram.MaxAttempts),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing telegram sink: %w", err)
		}
		w.notifier = notifier
	}

	w.aggregator = snapshot.NewAggregator(w.adapters, cfg.SourceTimeout, log)
	w.sched = scheduler.New(cfg.Interval, w.clock, log)

	return w, nil
}

func buildAdapters(cfg *config.Config, log logger.Logger) []core.Adapter {
	var spotOptions []binance.SpotOption
	if cfg.Binance.APIKey != "" {
		spotOptions = append(spotOptions, binance.WithCredentials(cfg.Binance.APIKey, cfg.Binance.SecretKey))
	}
	if cfg.Binance.Testnet {
		spotOptions = append(spotOptions, binance.WithTestnet())
	}

	spot := binance.NewSpot(log, spotOptions...)

	adapters := []core.Adapter{
		binance.NewTickerAdapter(spot),
		binance.NewCandleAdapter(spot, cfg.Candles.Period, cfg.Candles.Limit),
	}

	if cfg.OpenInterest.Enabled {
		var futuresOptions []binance.FuturesOption
		if cfg.Binance.Testnet {
			futuresOptions = append(futuresOptions, binance.WithFuturesTestnet())
		}
		adapters = append(adapters, binance.NewOpenInterestAdapter(binance.NewFutures(log, futuresOptions...)))
	}

	if cfg.BiasEnabled() {
		adapters = append(adapters, bias.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Candles.Period, spot, log))
	}

	return adapters
}

// Run sends the startup notice and drives polling cycles until ctx is
// canceled. It returns nil on a graceful stop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithField("symbols", w.cfg.Symbols).
		WithField("interval", w.cfg.Interval.String()).
		WithField("sources", w.aggregator.Sources()).
		Info("worker starting")

	if err := w.notifier.Deliver(ctx, "*marketpulse online*"); err != nil {
		w.log.WithError(err).Error("startup notification failed")
	}

	return w.sched.Run(ctx, w.cycle)
}

// CollectOnce runs a single aggregation pass without delivering
// anything. Used by the one-shot snapshot command.
func (w *Worker) CollectOnce(ctx context.Context) []core.Snapshot {
	return w.collect(ctx)
}

// cycle is one fetch-all / aggregate / notify pass. Delivery failures
// are logged and swallowed so the schedule keeps running.
func (w *Worker) cycle(ctx context.Context) {
	snapshots := w.collect(ctx)

	message := notification.Format(w.clock.Now(), snapshots)
	if err := w.notifier.Deliver(ctx, message); err != nil {
		w.log.WithError(err).Error("cycle notification failed")
		return
	}

	w.log.WithField("symbols", len(snapshots)).Debug("cycle delivered")
}

// collect aggregates all configured symbols concurrently, keeping the
// configured symbol order in the result.
func (w *Worker) collect(ctx context.Context) []core.Snapshot {
	snapshots := make([]core.Snapshot, len(w.cfg.Symbols))

	var wg sync.WaitGroup
	for i, symbol := range w.cfg.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			snapshots[i] = w.aggregator.Collect(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	return snapshots
}

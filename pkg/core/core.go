// Package core holds the domain types shared by the marketpulse
// components: the adapter contract, per-source results and the
// per-cycle snapshot.
package core

import (
	"context"
	"time"
)

// Source names, one per adapter kind. The aggregator keys snapshot
// results by these.
const (
	SourceTicker       = "ticker"
	SourceCandles      = "candles"
	SourceOpenInterest = "open_interest"
	SourceBias         = "bias"
)

// Adapter fetches one kind of market data for one symbol. Fetch must
// honor ctx cancellation; returned errors are classified by the
// aggregator, they never escape a cycle.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (Report, error)
}

// Report is the success payload of a source fetch. Lines renders the
// payload as human-readable fragments for the notification body.
type Report interface {
	Lines() []string
}

// Notifier delivers a rendered message to the external sink. Deliver
// applies its own retry policy and returns only after the message is
// accepted or retries are exhausted.
type Notifier interface {
	Deliver(ctx context.Context, message string) error
}

// SourceResult is the outcome of one adapter call within a cycle:
// either Report is set or Err is set, never both.
type SourceResult struct {
	Source  string
	Report  Report
	Err     *FetchError
	Elapsed time.Duration
}

// OK reports whether the fetch succeeded.
func (r SourceResult) OK() bool {
	return r.Err == nil
}

// Snapshot is the aggregated outcome of one polling cycle for one
// symbol. Every configured source has exactly one entry, failures
// included.
type Snapshot struct {
	Symbol  string
	At      time.Time
	Results map[string]SourceResult
}

// Failed returns the names of the sources that did not produce a
// report this cycle.
func (s Snapshot) Failed() []string {
	failed := make([]string, 0, len(s.Results))
	for name, result := range s.Results {
		if !result.OK() {
			failed = append(failed, name)
		}
	}
	return failed
}

// AllFailed reports whether no source produced a report this cycle.
func (s Snapshot) AllFailed() bool {
	return len(s.Results) > 0 && len(s.Failed()) == len(s.Results)
}

// TickerReport carries the 24h spot statistics for a symbol.
type TickerReport struct {
	LastPrice float64
	OpenPrice float64
	HighPrice float64
	LowPrice  float64
	Volume    float64
	PctChange float64
}

// Candle is a single OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleReport carries the recent bars plus indicator values derived
// from their closes.
type CandleReport struct {
	Candles    []Candle
	RSI        float64
	SMA        float64
	Volatility float64
}

// OpenInterestReport carries the futures open interest observation.
type OpenInterestReport struct {
	OpenInterest float64
	At           time.Time
}

// BiasReport carries the model's verdict for a symbol.
type BiasReport struct {
	Signal    string
	Reasoning string
}

// Valid bias signals.
const (
	BiasBullish = "bullish"
	BiasBearish = "bearish"
	BiasNeutral = "neutral"
)

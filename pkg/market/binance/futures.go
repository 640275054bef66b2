package binance

import (
	"context"
	"time"

	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"

	"github.com/adshao/go-binance/v2/futures"
)

// Futures wraps the Binance USD-M futures client used by the open
// interest adapter.
type Futures struct {
	client *futures.Client
	log    logger.Logger
}

// FuturesOption configures a Futures client.
type FuturesOption func(*Futures)

// WithFuturesCredentials sets API credentials for the futures client.
func WithFuturesCredentials(key, secret string) FuturesOption {
	return func(f *Futures) {
		f.client = futures.NewClient(key, secret)
	}
}

// WithFuturesTestnet points the client at the futures testnet.
func WithFuturesTestnet() FuturesOption {
	return func(_ *Futures) {
		futures.UseTestnet = true
	}
}

// NewFutures creates the futures market client.
func NewFutures(log logger.Logger, options ...FuturesOption) *Futures {
	f := &Futures{
		client: futures.NewClient("", ""),
		log:    log,
	}

	for _, option := range options {
		option(f)
	}

	return f
}

// OpenInterestAdapter fetches the current open interest for a symbol
// from the futures API.
type OpenInterestAdapter struct {
	futures *Futures
}

// NewOpenInterestAdapter creates the open interest adapter.
func NewOpenInterestAdapter(f *Futures) *OpenInterestAdapter {
	return &OpenInterestAdapter{futures: f}
}

// Name implements core.Adapter.
func (a *OpenInterestAdapter) Name() string { return core.SourceOpenInterest }

// Fetch implements core.Adapter.
func (a *OpenInterestAdapter) Fetch(ctx context.Context, symbol string) (core.Report, error) {
	oi, err := a.futures.client.NewGetOpenInterestService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	value, err := parseFloat("open interest", oi.OpenInterest)
	if err != nil {
		return nil, err
	}

	return core.OpenInterestReport{
		OpenInterest: value,
		At:           time.Unix(0, oi.Time*int64(time.Millisecond)),
	}, nil
}

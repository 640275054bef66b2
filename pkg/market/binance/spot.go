// Package binance implements the market data adapters backed by the
// Binance spot and futures REST APIs.
package binance

import (
	"context"
	"time"

	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"

	"github.com/adshao/go-binance/v2"
)

// Spot wraps the Binance spot client shared by the ticker and candle
// adapters. The client is owned here and injected at construction,
// never a package-level singleton.
type Spot struct {
	client *binance.Client
	log    logger.Logger
}

// SpotOption configures a Spot client.
type SpotOption func(*Spot)

// WithCredentials sets API credentials. Market data endpoints work
// without them; they only matter for tighter rate limits.
func WithCredentials(key, secret string) SpotOption {
	return func(s *Spot) {
		s.client = binance.NewClient(key, secret)
	}
}

// WithTestnet points the client at the Binance spot testnet.
func WithTestnet() SpotOption {
	return func(_ *Spot) {
		binance.UseTestnet = true
	}
}

// NewSpot creates the spot market client.
func NewSpot(log logger.Logger, options ...SpotOption) *Spot {
	spot := &Spot{
		client: binance.NewClient("", ""),
		log:    log,
	}

	for _, option := range options {
		option(spot)
	}

	return spot
}

// Series returns the most recent closed candles for a pair. The last
// kline is dropped because it is still forming.
func (s *Spot) Series(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	data, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit + 1).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, core.NewFetchError(core.ErrInvalidData, "empty kline response for %s", symbol)
	}

	candles := make([]core.Candle, 0, len(data)-1)
	for i, k := range data {
		if i == len(data)-1 {
			break
		}

		candle, err := convertKline(k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func convertKline(k *binance.Kline) (core.Candle, error) {
	open, err := parseFloat("kline open", k.Open)
	if err != nil {
		return core.Candle{}, err
	}
	high, err := parseFloat("kline high", k.High)
	if err != nil {
		return core.Candle{}, err
	}
	low, err := parseFloat("kline low", k.Low)
	if err != nil {
		return core.Candle{}, err
	}
	closePrice, err := parseFloat("kline close", k.Close)
	if err != nil {
		return core.Candle{}, err
	}
	volume, err := parseFloat("kline volume", k.Volume)
	if err != nil {
		return core.Candle{}, err
	}

	return core.Candle{
		Time:   time.Unix(0, k.OpenTime*int64(time.Millisecond)),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}

// TickerAdapter fetches 24h price change statistics from the spot API.
type TickerAdapter struct {
	spot *Spot
}

// NewTickerAdapter creates the 24h ticker adapter.
func NewTickerAdapter(spot *Spot) *TickerAdapter {
	return &TickerAdapter{spot: spot}
}

// Name implements core.Adapter.
func (a *TickerAdapter) Name() string { return core.SourceTicker }

// Fetch implements core.Adapter.
func (a *TickerAdapter) Fetch(ctx context.Context, symbol string) (core.Report, error) {
	stats, err := a.spot.client.NewListPriceChangeStatsService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	if len(stats) == 0 {
		return nil, core.NewFetchError(core.ErrInvalidData, "empty ticker response for %s", symbol)
	}

	return deriveTicker(stats[0])
}

// CandleAdapter fetches recent klines and derives indicator values
// from them.
type CandleAdapter struct {
	spot     *Spot
	interval string
	limit    int
}

// NewCandleAdapter creates the candlestick adapter.
func NewCandleAdapter(spot *Spot, interval string, limit int) *CandleAdapter {
	return &CandleAdapter{spot: spot, interval: interval, limit: limit}
}

// Name implements core.Adapter.
func (a *CandleAdapter) Name() string { return core.SourceCandles }

// Fetch implements core.Adapter.
func (a *CandleAdapter) Fetch(ctx context.Context, symbol string) (core.Report, error) {
	candles, err := a.spot.Series(ctx, symbol, a.interval, a.limit)
	if err != nil {
		return nil, err
	}

	return deriveCandles(candles)
}

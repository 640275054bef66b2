package binance

import (
	"strconv"

	"marketpulse/pkg/core"

	"github.com/adshao/go-binance/v2"
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

const (
	rsiPeriod = 14
	smaPeriod = 20

	// minCandles is the smallest series the indicators are defined on.
	minCandles = smaPeriod + 1
)

func parseFloat(field, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, core.NewFetchError(core.ErrInvalidData, "%s: cannot parse %q", field, value)
	}
	return parsed, nil
}

// deriveTicker computes the 24h percent change from the raw stats.
// The change is recomputed from open/last rather than trusting the
// upstream field, with an explicit zero-open guard.
func deriveTicker(stats *binance.PriceChangeStats) (core.TickerReport, error) {
	last, err := parseFloat("last price", stats.LastPrice)
	if err != nil {
		return core.TickerReport{}, err
	}
	open, err := parseFloat("open price", stats.OpenPrice)
	if err != nil {
		return core.TickerReport{}, err
	}
	high, err := parseFloat("high price", stats.HighPrice)
	if err != nil {
		return core.TickerReport{}, err
	}
	low, err := parseFloat("low price", stats.LowPrice)
	if err != nil {
		return core.TickerReport{}, err
	}
	volume, err := parseFloat("volume", stats.Volume)
	if err != nil {
		return core.TickerReport{}, err
	}

	if open == 0 {
		return core.TickerReport{}, core.NewFetchError(core.ErrInvalidData, "open price is zero for %s", stats.Symbol)
	}

	return core.TickerReport{
		LastPrice: last,
		OpenPrice: open,
		HighPrice: high,
		LowPrice:  low,
		Volume:    volume,
		PctChange: (last - open) / open * 100,
	}, nil
}

// deriveCandles computes RSI, SMA and close-return volatility over the
// series.
func deriveCandles(candles []core.Candle) (core.CandleReport, error) {
	if len(candles) < minCandles {
		return core.CandleReport{}, core.NewFetchError(core.ErrInvalidData,
			"need at least %d candles, got %d", minCandles, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return core.CandleReport{}, core.NewFetchError(core.ErrInvalidData,
				"zero close price at bar %d", i-1)
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}

	rsi := talib.Rsi(closes, rsiPeriod)
	sma := talib.Sma(closes, smaPeriod)

	return core.CandleReport{
		Candles:    candles,
		RSI:        rsi[len(rsi)-1],
		SMA:        sma[len(sma)-1],
		Volatility: stat.StdDev(returns, nil),
	}, nil
}

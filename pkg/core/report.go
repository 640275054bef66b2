package core

import "fmt"

// Lines implements Report.
func (r TickerReport) Lines() []string {
	return []string{
		fmt.Sprintf("Price: `%.4f` (%+.2f%%)", r.LastPrice, r.PctChange),
		fmt.Sprintf("24h Range: `%.4f` - `%.4f`", r.LowPrice, r.HighPrice),
		fmt.Sprintf("24h Volume: `%.2f`", r.Volume),
	}
}

// Lines implements Report.
func (r CandleReport) Lines() []string {
	return []string{
		fmt.Sprintf("RSI(14): `%.2f`", r.RSI),
		fmt.Sprintf("SMA(20): `%.4f`", r.SMA),
		fmt.Sprintf("Volatility: `%.4f`", r.Volatility),
	}
}

// Lines implements Report.
func (r OpenInterestReport) Lines() []string {
	return []string{fmt.Sprintf("Open Interest: `%.2f`", r.OpenInterest)}
}

// Lines implements Report.
func (r BiasReport) Lines() []string {
	lines := []string{fmt.Sprintf("Bias: *%s*", r.Signal)}
	if r.Reasoning != "" {
		lines = append(lines, r.Reasoning)
	}
	return lines
}

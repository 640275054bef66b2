package bias

import (
	"context"
	"errors"
	"testing"

	"marketpulse/pkg/core"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error

	gotPrompt string
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if len(req.Messages) > 0 {
		f.gotPrompt = req.Messages[len(req.Messages)-1].Content
	}
	return f.resp, f.err
}

type fakeSeries struct {
	candles []core.Candle
	err     error
}

func (f *fakeSeries) Series(context.Context, string, string, int) ([]core.Candle, error) {
	return f.candles, f.err
}

func completionWith(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func testCandles(n int) []core.Candle {
	candles := make([]core.Candle, n)
	for i := range candles {
		candles[i] = core.Candle{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	}
	return candles
}

func TestFetch_ParsesVerdict(t *testing.T) {
	completer := &fakeCompleter{
		resp: completionWith(`Here is my analysis: {"signal": "Bullish", "reasoning": "ascending triangle"}`),
	}
	adapter := &Adapter{
		client:   completer,
		series:   &fakeSeries{candles: testCandles(20)},
		model:    "gpt-4o-mini",
		interval: "5m",
	}

	report, err := adapter.Fetch(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	biasReport, ok := report.(core.BiasReport)
	require.True(t, ok)
	require.Equal(t, core.BiasBullish, biasReport.Signal)
	require.Equal(t, "ascending triangle", biasReport.Reasoning)

	// Prompt carries at most the trailing 10 candles.
	require.Contains(t, completer.gotPrompt, "Last 10 candles")
	require.Contains(t, completer.gotPrompt, "BTCUSDT")
}

func TestFetch_InvalidSignal(t *testing.T) {
	adapter := &Adapter{
		client: &fakeCompleter{resp: completionWith(`{"signal": "moon", "reasoning": "vibes"}`)},
		series: &fakeSeries{candles: testCandles(10)},
	}

	_, err := adapter.Fetch(context.Background(), "BTCUSDT")

	var fetchErr *core.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, core.ErrInvalidData, fetchErr.Kind)
}

func TestFetch_NoJSONInResponse(t *testing.T) {
	adapter := &Adapter{
		client: &fakeCompleter{resp: completionWith("the market looks bullish to me")},
		series: &fakeSeries{candles: testCandles(10)},
	}

	_, err := adapter.Fetch(context.Background(), "BTCUSDT")

	var fetchErr *core.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, core.ErrInvalidData, fetchErr.Kind)
}

func TestFetch_SeedFailurePropagates(t *testing.T) {
	adapter := &Adapter{
		client: &fakeCompleter{},
		series: &fakeSeries{err: errors.New("klines unavailable")},
	}

	_, err := adapter.Fetch(context.Background(), "BTCUSDT")
	require.ErrorContains(t, err, "seeding bias prompt")
}

func TestClassifyOpenAI(t *testing.T) {
	authErr := classifyOpenAI(&openai.APIError{HTTPStatusCode: 401, Message: "bad key"})
	var fetchErr *core.FetchError
	require.True(t, errors.As(authErr, &fetchErr))
	require.Equal(t, core.ErrAuth, fetchErr.Kind)

	rateErr := classifyOpenAI(&openai.APIError{HTTPStatusCode: 429, Message: "slow down"})
	require.True(t, errors.As(rateErr, &fetchErr))
	require.Equal(t, core.ErrRateLimited, fetchErr.Kind)

	other := errors.New("boom")
	require.Equal(t, other, classifyOpenAI(other))
}

// Package bias implements the language-model bias adapter. It seeds a
// prompt with recent candles for a symbol and asks an OpenAI chat
// model for a directional verdict.
package bias

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"

	"github.com/sashabaranov/go-openai"
)

const (
	promptCandles = 10
	maxTokens     = 200
)

// SeriesProvider supplies the recent candles that seed the prompt.
// The Binance spot client implements it.
type SeriesProvider interface {
	Series(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error)
}

// completer is the slice of the OpenAI client the adapter uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Adapter asks a chat model for a market bias.
type Adapter struct {
	client   completer
	series   SeriesProvider
	model    string
	interval string
	log      logger.Logger
}

// New creates the bias adapter.
func New(apiKey, model, interval string, series SeriesProvider, log logger.Logger) *Adapter {
	return &Adapter{
		client:   openai.NewClient(apiKey),
		series:   series,
		model:    model,
		interval: interval,
		log:      log,
	}
}

// Name implements core.Adapter.
func (a *Adapter) Name() string { return core.SourceBias }

// Fetch implements core.Adapter.
func (a *Adapter) Fetch(ctx context.Context, symbol string) (core.Report, error) {
	candles, err := a.series.Series(ctx, symbol, a.interval, promptCandles)
	if err != nil {
		return nil, fmt.Errorf("seeding bias prompt: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(symbol, candles),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, classifyOpenAI(err)
	}

	if len(resp.Choices) == 0 {
		return nil, core.NewFetchError(core.ErrInvalidData, "empty completion response")
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

const systemPrompt = `You are a cryptocurrency technical analyst. Given OHLC candles, detect chart patterns (flags, triangles, double tops, head & shoulders) and determine the directional bias.

Your response must be valid JSON with this structure:
{
  "signal": "bullish|bearish|neutral",
  "reasoning": "Short explanation of the detected patterns"
}`

// buildPrompt renders the recent candles into the user prompt. Only
// the trailing promptCandles bars are included.
func buildPrompt(symbol string, candles []core.Candle) string {
	if len(candles) > promptCandles {
		candles = candles[len(candles)-promptCandles:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Determine the market bias for %s.\n\n", symbol)
	fmt.Fprintf(&sb, "Last %d candles (open, high, low, close, volume):\n", len(candles))
	for _, c := range candles {
		fmt.Fprintf(&sb, "[%g, %g, %g, %g, %g]\n", c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	sb.WriteString("\nRespond with the JSON object only.")

	return sb.String()
}

// parseVerdict extracts and validates the JSON verdict from the model
// output.
func parseVerdict(content string) (core.BiasReport, error) {
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return core.BiasReport{}, core.NewFetchError(core.ErrInvalidData, "no JSON object in completion: %q", content)
	}

	var verdict struct {
		Signal    string `json:"signal"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &verdict); err != nil {
		return core.BiasReport{}, core.NewFetchError(core.ErrInvalidData, "malformed verdict JSON: %v", err)
	}

	signal := strings.ToLower(strings.TrimSpace(verdict.Signal))
	switch signal {
	case core.BiasBullish, core.BiasBearish, core.BiasNeutral:
	default:
		return core.BiasReport{}, core.NewFetchError(core.ErrInvalidData, "invalid signal %q", verdict.Signal)
	}

	return core.BiasReport{Signal: signal, Reasoning: verdict.Reasoning}, nil
}

// extractJSON returns the outermost JSON object in the content.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// classifyOpenAI maps OpenAI API errors onto the error taxonomy.
func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return core.NewFetchError(core.ErrAuth, "openai: %s", apiErr.Message)
		case 429:
			return core.NewFetchError(core.ErrRateLimited, "openai: %s", apiErr.Message)
		}
	}
	return err
}

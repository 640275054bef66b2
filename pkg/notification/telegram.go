package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"

	"github.com/jpillora/backoff"
	tb "gopkg.in/tucnak/telebot.v2"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffMin  = 500 * time.Millisecond
	defaultBackoffMax  = 5 * time.Second
)

// Sender is the slice of the telebot client the notifier uses.
type Sender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// Telegram delivers formatted messages to a fixed chat, retrying
// transient failures with jittered backoff. Permanent rejections are
// never retried.
type Telegram struct {
	client      Sender
	chat        tb.ChatID
	maxAttempts int
	backoffMin  time.Duration
	backoffMax  time.Duration
	log         logger.Logger
}

// Option configures a Telegram notifier.
type Option func(*Telegram)

// WithMaxAttempts bounds the delivery attempts per message.
func WithMaxAttempts(n int) Option {
	return func(t *Telegram) {
		t.maxAttempts = n
	}
}

// WithBackoff sets the retry backoff window.
func WithBackoff(min, max time.Duration) Option {
	return func(t *Telegram) {
		t.backoffMin = min
		t.backoffMax = max
	}
}

// NewTelegram creates the notifier. Token validation happens here, so
// a bad token fails at startup rather than on the first cycle.
func NewTelegram(token string, chatID int64, log logger.Logger, options ...Option) (*Telegram, error) {
	client, err := tb.NewBot(tb.Settings{
		Token:     token,
		ParseMode: tb.ModeMarkdown,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newTelegram(client, chatID, log, options...), nil
}

func newTelegram(client Sender, chatID int64, log logger.Logger, options ...Option) *Telegram {
	t := &Telegram{
		client:      client,
		chat:        tb.ChatID(chatID),
		maxAttempts: defaultMaxAttempts,
		backoffMin:  defaultBackoffMin,
		backoffMax:  defaultBackoffMax,
		log:         log,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// Deliver sends the message, retrying transient failures up to the
// configured attempt count.
func (t *Telegram) Deliver(ctx context.Context, text string) error {
	retry := &backoff.Backoff{
		Min:    t.backoffMin,
		Max:    t.backoffMax,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		_, err := t.client.Send(t.chat, text)
		if err == nil {
			if attempt > 1 {
				t.log.Infof("delivered after %d attempts", attempt)
			}
			return nil
		}

		lastErr = err
		if !retryable(err) {
			t.log.WithError(err).Error("permanent delivery rejection")
			return core.NewFetchError(core.ErrDelivery, "permanent rejection: %v", err)
		}

		t.log.WithError(err).Warnf("delivery attempt %d/%d failed", attempt, t.maxAttempts)

		if attempt == t.maxAttempts {
			break
		}

		select {
		case <-time.After(retry.Duration()):
		case <-ctx.Done():
			return core.NewFetchError(core.ErrDelivery, "delivery canceled: %v", ctx.Err())
		}
	}

	return core.NewFetchError(core.ErrDelivery, "exhausted %d attempts: %v", t.maxAttempts, lastErr)
}

// retryable reports whether a delivery error is transient. Telegram
// flood control and 5xx responses are worth retrying; other API
// rejections (bad chat, bad token, forbidden) are permanent. Anything
// that is not an API error is assumed to be a network problem.
func retryable(err error) bool {
	var floodErr *tb.FloodError
	if errors.As(err, &floodErr) {
		return true
	}

	var apiErr *tb.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}

	return true
}

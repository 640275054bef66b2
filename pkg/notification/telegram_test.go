package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketpulse/pkg/core"
	"marketpulse/pkg/logger"

	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

type fakeSender struct {
	errs  []error // error returned per attempt; nil means success
	calls int
}

func (f *fakeSender) Send(_ tb.Recipient, _ interface{}, _ ...interface{}) (*tb.Message, error) {
	defer func() { f.calls++ }()
	if f.calls < len(f.errs) {
		return nil, f.errs[f.calls]
	}
	return &tb.Message{}, nil
}

func fastTelegram(sender Sender) *Telegram {
	return newTelegram(sender, 12345, logger.Nop(),
		WithMaxAttempts(3),
		WithBackoff(time.Millisecond, 2*time.Millisecond),
	)
}

func TestDeliver_Success(t *testing.T) {
	sender := &fakeSender{}
	require.NoError(t, fastTelegram(sender).Deliver(context.Background(), "hello"))
	require.Equal(t, 1, sender.calls)
}

func TestDeliver_RetriesTransientThenSucceeds(t *testing.T) {
	sender := &fakeSender{errs: []error{
		errors.New("connection reset"),
		&tb.APIError{Code: 500, Description: "internal"},
	}}

	require.NoError(t, fastTelegram(sender).Deliver(context.Background(), "hello"))
	require.Equal(t, 3, sender.calls)
}

func TestDeliver_ExhaustsAttempts(t *testing.T) {
	sender := &fakeSender{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"), errors.New("down"),
	}}

	err := fastTelegram(sender).Deliver(context.Background(), "hello")

	var fetchErr *core.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, core.ErrDelivery, fetchErr.Kind)
	// Exactly maxAttempts sends, no more.
	require.Equal(t, 3, sender.calls)
}

func TestDeliver_PermanentRejectionNotRetried(t *testing.T) {
	sender := &fakeSender{errs: []error{
		&tb.APIError{Code: 401, Description: "unauthorized"},
	}}

	err := fastTelegram(sender).Deliver(context.Background(), "hello")

	var fetchErr *core.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, core.ErrDelivery, fetchErr.Kind)
	require.Equal(t, 1, sender.calls)
}

func TestRetryable(t *testing.T) {
	require.True(t, retryable(errors.New("i/o timeout")))
	require.True(t, retryable(&tb.APIError{Code: 429}))
	require.True(t, retryable(&tb.APIError{Code: 502}))
	require.False(t, retryable(&tb.APIError{Code: 400}))
	require.False(t, retryable(&tb.APIError{Code: 403}))
}

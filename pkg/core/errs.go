package core

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/adshao/go-binance/v2/common"
)

// ErrorKind classifies adapter and delivery failures.
type ErrorKind string

const (
	ErrNetwork     ErrorKind = "network"
	ErrTimeout     ErrorKind = "timeout"
	ErrInvalidData ErrorKind = "invalid_data"
	ErrAuth        ErrorKind = "auth"
	ErrRateLimited ErrorKind = "rate_limited"
	ErrDelivery    ErrorKind = "delivery"
)

// FetchError is the failure arm of a SourceResult.
type FetchError struct {
	Kind    ErrorKind
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewFetchError builds a FetchError with a formatted message.
func NewFetchError(kind ErrorKind, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Binance error codes that indicate request throttling.
// https://binance-docs.github.io/apidocs/spot/en/#error-codes
const (
	binanceCodeTooManyRequests = -1003
	binanceCodeInvalidAPIKey   = -2014
	binanceCodeUnauthorized    = -2015
)

// Classify maps an arbitrary adapter error onto the error taxonomy.
// Already-classified errors pass through unchanged.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchError(ErrTimeout, "%v", err)
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case binanceCodeTooManyRequests:
			return NewFetchError(ErrRateLimited, "binance: %s", apiErr.Message)
		case binanceCodeInvalidAPIKey, binanceCodeUnauthorized:
			return NewFetchError(ErrAuth, "binance: %s", apiErr.Message)
		default:
			return NewFetchError(ErrInvalidData, "binance: code %d: %s", apiErr.Code, apiErr.Message)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewFetchError(ErrTimeout, "%v", err)
		}
		return NewFetchError(ErrNetwork, "%v", err)
	}

	return NewFetchError(ErrNetwork, "%v", err)
}

package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
)

// TransientError marks an error as retryable regardless of its type.
// Integrations with non-HTTP failure signals (e.g. provider SDK errors)
// wrap them with Transient to opt in to the retry policy.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so IsRetryable reports true for it. A nil err
// stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Class is the outcome of classifying a failure exactly once at the
// call boundary.
type Class int

const (
	// Success: 2xx.
	Success Class = iota
	// Retryable: transient, worth backing off and retrying.
	Retryable
	// Fatal: propagate immediately, never retried.
	Fatal
)

// ClassifyStatus classifies an HTTP status code. 408, 429 and any 5xx
// are retryable; all other non-2xx codes are fatal.
func ClassifyStatus(code int) Class {
	switch {
	case code >= 200 && code < 300:
		return Success
	case code == 408 || code == 429:
		return Retryable
	case code >= 500 && code < 600:
		return Retryable
	default:
		return Fatal
	}
}

// IsRetryable reports whether err is a transient failure: a marked
// TransientError, a retryable API status (408/429/5xx), a network
// timeout, or a connection-level failure. Context cancellation is never
// retryable; a deadline hit on an individual call is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var apiErr *devhttp.APIError
	if errors.As(err, &apiErr) {
		return ClassifyStatus(apiErr.StatusCode) == Retryable
	}

	var rl *devhttp.RateLimitError
	if errors.As(err, &rl) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	return isConnectionError(err)
}

// isConnectionError matches transport-level failures that carry no
// structured type.
func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "timeout")
}

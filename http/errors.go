// Package http provides the shared HTTP client base for integration
// clients: a thin verb surface over a base URL plus default headers, a
// response parser, and common API error types. Retry decisions live in
// the retry package.
package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Standard sentinel errors for integration clients.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates invalid or missing authentication.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrForbidden indicates the caller lacks permission for the operation.
	ErrForbidden = errors.New("permission denied")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("bad request")

	// ErrServerError indicates a server-side error occurred.
	ErrServerError = errors.New("server error")
)

// APIError represents a non-success status from an external API.
type APIError struct {
	// Service is the name of the integration (e.g. "qdrant", "openalex").
	Service string

	// StatusCode is the HTTP status code returned.
	StatusCode int

	// Message is the error message from the API, typically the response body.
	Message string

	// Endpoint is the API endpoint that was called.
	Endpoint string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d) at %s: %s",
		e.Service, e.StatusCode, e.Endpoint, e.Message)
}

// Unwrap returns the underlying sentinel error based on status code.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		if e.StatusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// RateLimitError represents a rate limit being exceeded, with the wait
// the API asked for when it provided one.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Service, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limit exceeded", e.Service)
}

// Unwrap returns ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// maxErrorBody bounds how much of an error response body is kept in the
// APIError message.
const maxErrorBody = 2048

// CheckStatus converts a non-2xx response into an *APIError, consuming
// and closing the body. A 2xx response is returned untouched with a nil
// error; the caller still owns the body.
func CheckStatus(service, endpoint string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		Endpoint:   endpoint,
	}
}

// Package retry implements the shared retry policy for outbound calls.
//
// Every integration (LLM, GitHub, academic sources, vector store) wraps
// its network calls in Do so that a single parameterized policy governs
// transient-failure handling: bounded exponential backoff for retryable
// errors, immediate propagation for everything else, and the last error
// surfaced after exhaustion.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Policy defaults, matching the shared policy used across integrations.
const (
	DefaultMaxAttempts = 10
	DefaultMultiplier  = 1.0
	DefaultMaxWait     = 180 * time.Second
)

// Policy defines how failed calls are retried. The zero value applies
// the defaults above with the standard IsRetryable classification.
type Policy struct {
	// MaxAttempts caps total invocations, including the first.
	MaxAttempts int

	// Multiplier scales the exponential wait, in seconds.
	Multiplier float64

	// MaxWait caps the wait between attempts.
	MaxWait time.Duration

	// Retryable classifies errors. Defaults to IsRetryable.
	Retryable func(error) bool

	// sleep is stubbed in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Multiplier <= 0 {
		p.Multiplier = DefaultMultiplier
	}
	if p.MaxWait <= 0 {
		p.MaxWait = DefaultMaxWait
	}
	if p.Retryable == nil {
		p.Retryable = IsRetryable
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

// Wait returns the backoff before the retry following the given attempt
// (1-based): min(MaxWait, Multiplier * 2^(attempt-1)) seconds. The growth
// is deterministic, with no jitter.
func (p Policy) Wait(attempt int) time.Duration {
	p = p.withDefaults()
	secs := p.Multiplier * math.Pow(2, float64(attempt-1))
	d := time.Duration(secs * float64(time.Second))
	if d > p.MaxWait || d < 0 {
		d = p.MaxWait
	}
	return d
}

// Do runs fn, retrying retryable failures with exponential backoff until
// MaxAttempts is exhausted. Non-retryable failures propagate immediately
// without sleeping. After exhaustion the last error is returned; there is
// no fallback value. Waiting aborts when ctx is done.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Wait(attempt)
		slog.Warn("retrying after transient failure",
			"op", op, "attempt", attempt, "wait", wait, "error", lastErr)
		if err := p.sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", op, p.MaxAttempts, lastErr)
}

// Do runs fn under the default policy.
func Do(ctx context.Context, op string, fn func() error) error {
	return Policy{}.Do(ctx, op, fn)
}

// Value runs fn under the given policy and returns its result.
func Value[T any](ctx context.Context, p Policy, op string, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

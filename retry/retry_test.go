package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	devhttp "github.com/wkumagai/TradeGraph-sub001/http"
)

// noSleep replaces the backoff sleep so tests run instantly while still
// recording the requested waits.
func noSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		if waits != nil {
			*waits = append(*waits, d)
		}
		return nil
	}
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	const failures = 3
	calls := 0
	p := Policy{sleep: noSleep(nil)}

	err := p.Do(context.Background(), "op", func() error {
		calls++
		if calls <= failures {
			return Transient(errors.New("transient"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != failures+1 {
		t.Errorf("calls = %d, want %d", calls, failures+1)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 4, sleep: noSleep(nil)}
	transient := errors.New("still down")

	err := p.Do(context.Background(), "op", func() error {
		calls++
		return Transient(transient)
	})
	if err == nil {
		t.Fatal("Do() should fail after exhausting attempts")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if !errors.Is(err, transient) {
		t.Errorf("Do() error = %v, want wrapped %v", err, transient)
	}
}

func TestDo_FatalPropagatesImmediately(t *testing.T) {
	calls := 0
	var waits []time.Duration
	p := Policy{sleep: noSleep(&waits)}
	fatal := errors.New("bad request")

	err := p.Do(context.Background(), "op", func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Do() error = %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(waits) != 0 {
		t.Errorf("slept %d times, want 0", len(waits))
	}
}

func TestDo_CanceledContextStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, "op", func() error {
		calls++
		return Transient(errors.New("transient"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWait_ExponentialGrowthWithCap(t *testing.T) {
	p := Policy{}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{8, 128 * time.Second},
		{9, 180 * time.Second},  // capped
		{20, 180 * time.Second}, // still capped
	}
	for _, tt := range tests {
		if got := p.Wait(tt.attempt); got != tt.want {
			t.Errorf("Wait(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestWait_IsDeterministic(t *testing.T) {
	p := Policy{}
	for attempt := 1; attempt < 12; attempt++ {
		if p.Wait(attempt) != p.Wait(attempt) {
			t.Fatalf("Wait(%d) is not deterministic", attempt)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want Class
	}{
		{200, Success},
		{204, Success},
		{299, Success},
		{301, Fatal},
		{400, Fatal},
		{404, Fatal},
		{408, Retryable},
		{422, Fatal},
		{429, Retryable},
		{500, Retryable},
		{503, Retryable},
		{599, Retryable},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.code), func(t *testing.T) {
			if got := ClassifyStatus(tt.code); got != tt.want {
				t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked transient", Transient(errors.New("x")), true},
		{"wrapped transient", fmt.Errorf("op: %w", Transient(errors.New("x"))), true},
		{"plain error", errors.New("invalid input"), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"api 429", &devhttp.APIError{StatusCode: 429}, true},
		{"api 500", &devhttp.APIError{StatusCode: 500}, true},
		{"api 403", &devhttp.APIError{StatusCode: 403}, false},
		{"rate limit", &devhttp.RateLimitError{Service: "s"}, true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestValue(t *testing.T) {
	calls := 0
	got, err := Value(context.Background(), Policy{sleep: noSleep(nil)}, "op", func() (string, error) {
		calls++
		if calls < 2 {
			return "", Transient(errors.New("transient"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Value() = %q, want %q", got, "ok")
	}
}

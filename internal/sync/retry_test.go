package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gobapps/financepro/internal/fmp"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "server error",
			err:  &fmp.APIError{StatusCode: 503, Message: "unavailable", Endpoint: "/quote/KO"},
			want: true,
		},
		{
			name: "throttled",
			err:  &fmp.APIError{StatusCode: 429, Message: "too many requests", Endpoint: "/quote/KO"},
			want: true,
		},
		{
			name: "client error",
			err:  &fmp.APIError{StatusCode: 400, Message: "bad request", Endpoint: "/quote/KO"},
			want: false,
		},
		{
			name: "unauthorized",
			err:  &fmp.APIError{StatusCode: 401, Message: "invalid key", Endpoint: "/quote/KO"},
			want: false,
		},
		{
			name: "unknown symbol",
			err:  fmt.Errorf("quote for NOPE: %w", fmp.ErrSymbolNotFound),
			want: false,
		},
		{
			name: "rate limiter",
			err:  &fmp.RateLimitError{RetryAfter: time.Second},
			want: true,
		},
		{
			name: "context cancelled",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: false,
		},
		{
			name: "wrapped server error",
			err:  fmt.Errorf("fetch KO: %w", &fmp.APIError{StatusCode: 500, Message: "boom", Endpoint: "/quote/KO"}),
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("something odd"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		Multiplier: 2.0,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestWithRetryTransientThenSuccess(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return &fmp.APIError{StatusCode: 503, Message: "unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3/3", attempts, calls)
	}
}

func TestWithRetryPermanentFailsFast(t *testing.T) {
	calls := 0
	wantErr := &fmp.APIError{StatusCode: 400, Message: "bad request"}
	attempts, err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, permanent errors must not retry", attempts, calls)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		calls++
		return &fmp.APIError{StatusCode: 503, Message: "still down"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// 1 initial try + 2 retries
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3/3", attempts, calls)
	}
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	config := fastRetryConfig()
	config.BaseDelay = time.Hour // retry delay effectively never elapses
	config.MaxDelay = 0

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = WithRetry(ctx, config, func() error {
			return &fmp.APIError{StatusCode: 503, Message: "unavailable"}
		})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WithRetry did not return after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffStaysUnderCeiling(t *testing.T) {
	config := RetryConfig{
		BaseDelay:  time.Second,
		Multiplier: 2.0,
		MaxDelay:   3 * time.Second,
	}
	for attempt := 0; attempt < 10; attempt++ {
		if d := config.Backoff(attempt); d < 0 || d > config.MaxDelay {
			t.Errorf("Backoff(%d) = %v, want within [0, %v]", attempt, d, config.MaxDelay)
		}
	}
}

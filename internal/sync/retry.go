package sync

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/url"
	"time"

	"github.com/gobapps/financepro/internal/fmp"
)

// RetryConfig controls retries for transient fetch failures.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry
	Multiplier float64       // Backoff growth factor
	MaxDelay   time.Duration // Ceiling for a single delay
}

// DefaultRetryConfig returns the standard retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		Multiplier: 2.0,
		MaxDelay:   30 * time.Second,
	}
}

// Backoff returns the delay before retry number attempt (0-based),
// with full jitter so parallel retries do not stampede.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	delay := float64(c.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= c.Multiplier
	}
	if max := float64(c.MaxDelay); c.MaxDelay > 0 && delay > max {
		delay = max
	}
	return time.Duration(rand.Float64() * delay)
}

// IsTransient reports whether a fetch error is worth retrying.
// Provider throttling and server-side failures are transient; client
// errors, unknown symbols and cancellation are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, fmp.ErrSymbolNotFound) {
		return false
	}

	var statusErr interface {
		error
		HTTPStatus() int
	}
	if errors.As(err, &statusErr) {
		status := statusErr.HTTPStatus()
		return status == 429 || status >= 500
	}

	var rateErr *fmp.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}

// WithRetry runs fn, retrying transient failures per the config. The
// returned attempt count includes the first try.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) (attempts int, err error) {
	for attempt := 0; ; attempt++ {
		attempts = attempt + 1
		err = fn()
		if err == nil {
			return attempts, nil
		}
		if attempt >= config.MaxRetries || !IsTransient(err) {
			return attempts, err
		}

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(config.Backoff(attempt)):
		}
	}
}

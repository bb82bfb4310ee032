// Package fmp provides a client for the Financial Modeling Prep API.
// This package centralizes all FMP API interactions for the application.
package fmp

import (
	"errors"
	"fmt"
	"time"
)

// ErrSymbolNotFound is returned when FMP has no data for a symbol.
// Retrying cannot fix an unknown symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// QueryOption represents an optional parameter for API queries.
type QueryOption func(*queryParams)

// queryParams holds optional query parameters.
type queryParams struct {
	From   time.Time
	To     time.Time
	Period string // annual, quarter
	Limit  int
}

// WithDateRange sets the date range for the query.
func WithDateRange(from, to time.Time) QueryOption {
	return func(p *queryParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the statement period (annual or quarter).
func WithPeriod(period string) QueryOption {
	return func(p *queryParams) {
		p.Period = period
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(limit int) QueryOption {
	return func(p *queryParams) {
		p.Limit = limit
	}
}

// APIError represents an error from the FMP API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// HTTPStatus returns the upstream status code. Used for retry
// classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// RateLimitError represents a local rate limit wait being cut short.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("FMP rate limit exceeded, retry after %v", e.RetryAfter)
}

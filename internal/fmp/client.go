package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the FMP API.
	DefaultBaseURL = "https://financialmodelingprep.com/api/v3"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 4
)

// Client is an FMP API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new FMP API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("FMP API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetProfile retrieves the company profile for a symbol.
// FMP returns an empty array for unknown symbols.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	var result []Profile
	if err := c.get(ctx, "/profile/"+symbol, nil, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("profile for %s: %w", symbol, ErrSymbolNotFound)
	}
	return &result[0], nil
}

// GetQuote retrieves the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var result []Quote
	if err := c.get(ctx, "/quote/"+symbol, nil, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("quote for %s: %w", symbol, ErrSymbolNotFound)
	}
	return &result[0], nil
}

// GetKeyMetrics retrieves per-share key metrics for a symbol.
func (c *Client) GetKeyMetrics(ctx context.Context, symbol string, opts ...QueryOption) ([]KeyMetrics, error) {
	params := &queryParams{
		Period: "annual",
		Limit:  15,
	}
	for _, opt := range opts {
		opt(params)
	}

	queryParams := url.Values{}
	queryParams.Set("period", params.Period)
	if params.Limit > 0 {
		queryParams.Set("limit", fmt.Sprintf("%d", params.Limit))
	}

	var result []KeyMetrics
	if err := c.get(ctx, "/key-metrics/"+symbol, queryParams, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetIncomeStatements retrieves income statements for a symbol.
func (c *Client) GetIncomeStatements(ctx context.Context, symbol string, opts ...QueryOption) ([]IncomeStatement, error) {
	params := &queryParams{
		Period: "annual",
		Limit:  15,
	}
	for _, opt := range opts {
		opt(params)
	}

	queryParams := url.Values{}
	queryParams.Set("period", params.Period)
	if params.Limit > 0 {
		queryParams.Set("limit", fmt.Sprintf("%d", params.Limit))
	}

	var result []IncomeStatement
	if err := c.get(ctx, "/income-statement/"+symbol, queryParams, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetHistoricalPrices retrieves daily price history for a symbol.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, opts ...QueryOption) (*HistoricalPricesResponse, error) {
	params := &queryParams{}
	for _, opt := range opts {
		opt(params)
	}

	queryParams := url.Values{}
	if !params.From.IsZero() {
		queryParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		queryParams.Set("to", params.To.Format("2006-01-02"))
	}

	var result HistoricalPricesResponse
	if err := c.get(ctx, "/historical-price-full/"+symbol, queryParams, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDividends retrieves dividend payment history for a symbol.
func (c *Client) GetDividends(ctx context.Context, symbol string) (*DividendsResponse, error) {
	var result DividendsResponse
	if err := c.get(ctx, "/historical-price-full/stock_dividend/"+symbol, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

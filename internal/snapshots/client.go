// Package snapshots provides an HTTP client for a remote snapshot
// backend. It implements the same storage interface as the embedded
// store, so deployments can keep valuation history in a shared service
// instead of a local database.
package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// DefaultTimeout is the default HTTP timeout.
const DefaultTimeout = 30 * time.Second

// APIError represents an error from the snapshot backend.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("snapshot backend error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// HTTPStatus returns the upstream status code. Used for retry
// classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Client talks to the snapshot backend. The backend enforces version
// allocation and the single-current flip server-side; create and
// set-current are single requests so the invariant cannot be violated
// by a crash between calls.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

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

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// NewClient creates a snapshot backend client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ interfaces.SnapshotStorage = (*Client)(nil)

// do executes a request and decodes the response into result when the
// pointer is non-nil.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", c.baseURL+path).
			Msg("Snapshot backend request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return interfaces.ErrSnapshotNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
			Endpoint:   path,
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

type createRequest struct {
	Snapshot    *models.Snapshot `json:"snapshot"`
	MakeCurrent bool             `json:"make_current"`
}

// Create stores a new snapshot. The backend assigns the id and the
// next per-ticker version.
func (c *Client) Create(ctx context.Context, snapshot *models.Snapshot, makeCurrent bool) (*models.Snapshot, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	var created models.Snapshot
	if err := c.do(ctx, http.MethodPost, "/snapshots", nil, createRequest{Snapshot: snapshot, MakeCurrent: makeCurrent}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Get retrieves a snapshot by id.
func (c *Client) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/snapshots/"+id, nil, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Update replaces a snapshot's mutable fields.
func (c *Client) Update(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error) {
	var updated models.Snapshot
	if err := c.do(ctx, http.MethodPut, "/snapshots/"+snapshot.ID, nil, snapshot, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a snapshot.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/snapshots/"+id, nil, nil, nil)
}

// List retrieves snapshots newest-first, narrowed by the filter.
func (c *Client) List(ctx context.Context, filter models.SnapshotFilter) ([]*models.Snapshot, error) {
	params := url.Values{}
	if filter.Ticker != "" {
		params.Set("ticker", filter.Ticker)
	}
	if filter.CurrentOnly {
		params.Set("current_only", "true")
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var result []*models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/snapshots", params, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCurrent retrieves the current snapshot for a ticker.
func (c *Client) GetCurrent(ctx context.Context, ticker string) (*models.Snapshot, error) {
	params := url.Values{}
	params.Set("ticker", ticker)

	var snapshot models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/snapshots/current", params, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SetCurrent marks a snapshot current. The backend unmarks every other
// snapshot for the same ticker in the same transaction.
func (c *Client) SetCurrent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/snapshots/"+id+"/current", nil, nil, nil)
}

// CurrentTickers returns the distinct tickers that have a current
// snapshot.
func (c *Client) CurrentTickers(ctx context.Context) ([]string, error) {
	var tickers []string
	if err := c.do(ctx, http.MethodGet, "/snapshots/current-tickers", nil, nil, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}

// Close is a no-op for the HTTP client.
func (c *Client) Close() error {
	return nil
}

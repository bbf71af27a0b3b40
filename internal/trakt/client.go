// Package trakt provides the HTTP client that retrieves user lists from the
// Trakt API.
//
// Trakt uses header-based auth (trakt-api-key plus an optional Bearer token)
// and returns each list as a single JSON array of typed entries. Requests are
// rate limited with a token bucket and transient failures are retried.
package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/albapepper/traktlist/internal/normalize"
)

const (
	DefaultBaseURL = "https://api.trakt.tv"
	apiVersion     = "2"
)

// ErrRetrieve is returned for every failure to fetch or decode a list.
var ErrRetrieve = errors.New("could not retrieve list from trakt")

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	ClientID          string
	RequestsPerMinute int
	RetryAttempts     uint
	RetryDelay        time.Duration
	Timeout           time.Duration
}

// Client is the HTTP client for Trakt list endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a Trakt HTTP client with rate limiting and retries.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	rps := float64(opts.RequestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		clientID:   opts.ClientID,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		attempts:   opts.RetryAttempts,
		retryDelay: opts.RetryDelay,
		logger:     logger,
	}
}

// FetchList retrieves every raw entry of the requested list.
// An empty body or JSON null is an empty list, not an error.
func (c *Client) FetchList(ctx context.Context, req ListRequest) ([]normalize.Record, error) {
	path := req.Path()
	c.logger.Info("Retrieving list", "type", req.ListType, "list", req.List, "username", req.Username)

	body, err := retry.DoWithData(
		func() ([]byte, error) { return c.get(ctx, path, req.Password) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying trakt request", "path", path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieve, err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		c.logger.Debug("Could not decode json from response", "path", path, "body", truncate(body, 200))
		return nil, fmt.Errorf("%w: decode response: %w", ErrRetrieve, err)
	}
	return records, nil
}

// get performs a single rate-limited GET request against the API.
func (c *Client) get(ctx context.Context, path, accessToken string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	c.setHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}
	return body, nil
}

// setHeaders adds the headers every Trakt API request needs.
func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.clientID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

// StatusError reports a non-200 response from Trakt.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trakt %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// retryable reports whether a failed request is worth repeating: transport
// errors, throttling and server errors are; other client errors are not.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func decodeRecords(body []byte) ([]normalize.Record, error) {
	var records []normalize.Record
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

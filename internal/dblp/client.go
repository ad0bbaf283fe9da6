// Package dblp looks up publications in the DBLP computer science bibliography.
package dblp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/reffix/internal/bibtex"
)

const (
	// BaseURL is the DBLP publication search API.
	BaseURL = "https://dblp.org/search/publ/api"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps us well below what DBLP tolerates from one client.
	RateLimit = 1.0

	// DefaultMaxRetries is the number of retries after a transient failure.
	DefaultMaxRetries = 2

	// DefaultUserAgent identifies the client to DBLP.
	DefaultUserAgent = "reffix (+https://github.com/matsen/reffix)"

	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	maxResponseBytes      = 8 << 20
)

// Client is a rate-limited HTTP client for the DBLP search API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	maxRetries int
	maxHits    int
	sleeper    func(context.Context, time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing or a DBLP mirror).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithRateLimit sets the maximum number of requests per second.
// A non-positive value disables rate limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithMaxHits limits the number of results DBLP returns (0 = server default).
func WithMaxHits(n int) ClientOption {
	return func(c *Client) {
		c.maxHits = n
	}
}

// WithSleeper overrides how retry delays are waited out (for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleeper = sleep
	}
}

// NewClient creates a new DBLP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		userAgent:  DefaultUserAgent,
		maxRetries: DefaultMaxRetries,
		sleeper:    sleepWithContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search returns the BibTeX records DBLP finds for a free-text query,
// in the order DBLP returns them. No hits is an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]bibtex.Entry, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return []bibtex.Entry{}, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, retryAfter, err := c.fetch(ctx, query)
		if err == nil {
			return parseResults(body)
		}
		lastErr = err

		if attempt == c.maxRetries || !IsTransient(err) || ctx.Err() != nil {
			break
		}
		delay := retryAfter
		if delay <= 0 {
			delay = backoffDelay(attempt + 1)
		}
		if delay > defaultRetryMaxDelay {
			delay = defaultRetryMaxDelay
		}
		if err := c.sleeper(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// Lookup adapts Search to the lookup function signature used by the fixer.
func (c *Client) Lookup(ctx context.Context, query string) ([]bibtex.Entry, error) {
	return c.Search(ctx, query)
}

// fetch performs a single request and returns the response body.
func (c *Client) fetch(ctx context.Context, query string) ([]byte, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("format", "bib")
	params.Set("q", query)
	if c.maxHits > 0 {
		params.Set("h", strconv.Itoa(c.maxHits))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/x-bibtex, text/plain")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, query); err != nil {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, retryAfter, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading response: %v", ErrNetworkError, err)
	}
	return body, 0, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, query string) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			Query:      query,
		}
	}
	return nil
}

func parseResults(body []byte) ([]bibtex.Entry, error) {
	file, err := bibtex.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if file.Entries == nil {
		return []bibtex.Entry{}, nil
	}
	return file.Entries, nil
}

// backoffDelay doubles the base delay per retry: 1s, 2s, 4s, ...
func backoffDelay(retry int) time.Duration {
	delay := defaultRetryBaseDelay
	for i := 1; i < retry; i++ {
		if delay > defaultRetryMaxDelay/2 {
			return defaultRetryMaxDelay
		}
		delay *= 2
	}
	return delay
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

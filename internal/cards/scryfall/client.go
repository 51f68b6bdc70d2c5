package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.scryfall.com"
	DefaultUserAgent = "CommanderDecks/1.0"

	defaultRateLimitDelay = 100 * time.Millisecond // 10 req/sec
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	maxBackoff            = 16 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL        string
	UserAgent      string
	RateLimitDelay time.Duration
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	HTTPClient     *http.Client
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	userAgent      string
	maxRetries     int
	initialBackoff time.Duration
}

// NewClient creates a new Scryfall API client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RateLimitDelay <= 0 {
		opts.RateLimitDelay = defaultRateLimitDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		// One request per RateLimitDelay, no bursts.
		rateLimiter:    rate.NewLimiter(rate.Every(opts.RateLimitDelay), 1),
		userAgent:      opts.UserAgent,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
	}
}

// Autocomplete returns up to 20 full card names starting with or closely
// matching query. Queries shorter than two characters return nothing.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/cards/autocomplete?q=%s", c.baseURL, url.QueryEscape(query))

	var catalog Catalog
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &catalog); err != nil {
		return nil, fmt.Errorf("failed to autocomplete %q: %w", query, err)
	}

	return catalog.Data, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
// Network errors, 429 and 5xx responses are retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		retry, retryAfter, err := c.handleResponse(resp, endpoint, result)
		if !retry {
			return err
		}
		lastErr = err
		if retryAfter > backoff {
			backoff = retryAfter
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse decodes resp into result. It reports whether the request
// should be retried and any server-provided Retry-After delay.
func (c *Client) handleResponse(resp *http.Response, endpoint string, result interface{}) (bool, time.Duration, error) {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, 0, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		return true, retryAfter, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode == http.StatusNotFound:
		return false, 0, &NotFoundError{URL: endpoint}
	}

	body, _ := io.ReadAll(resp.Body)
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && (apiErr.Details != "" || apiErr.Code != "") {
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		return resp.StatusCode >= 500, 0, &apiErr
	}
	return resp.StatusCode >= 500, 0, &APIError{
		Object:  "error",
		Status:  resp.StatusCode,
		Details: strings.TrimSpace(string(body)),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

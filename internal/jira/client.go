// Package jira is a rate-limited, retrying client for the Jira Cloud
// REST API, plus thin wrappers for the endpoints the tool layer exposes.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jirasafe/jirasafe/internal/ratelimit"
)

const (
	defaultMaxAttempts  = 3
	defaultBackoffBase  = 1000 * time.Millisecond
	defaultRetryAfter   = 60 * time.Second
	defaultMax429Wait   = 5 * time.Minute
	defaultHTTPTimeout  = 30 * time.Second
	maxErrorBodyCapture = 4096

	// max429Retries bounds the 429 loop by count as well as by
	// cumulative wait, so a zero Retry-After cannot spin forever.
	max429Retries = 10
)

// Config holds everything needed to construct a Client.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string

	// Rate limiting. Zero values use the ratelimit package defaults.
	MaxRequests int
	Window      time.Duration

	// Retry tuning. Zero values use the package defaults. Max429Wait
	// caps the cumulative time spent honoring upstream Retry-After
	// headers so sustained throttling cannot suspend a call forever.
	MaxAttempts int
	BackoffBase time.Duration
	Max429Wait  time.Duration

	HTTPTimeout time.Duration
}

// Client executes authenticated Jira REST calls. Every call waits for a
// local rate-limit token before going out, then retries transient
// failures with exponential backoff.
type Client struct {
	baseURL     string
	authHeader  string
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	log         *logrus.Logger
	maxAttempts int
	backoffBase time.Duration
	max429Wait  time.Duration
}

// NewClient validates cfg and builds a client. The basic-auth header is
// computed once here.
func NewClient(cfg Config, log *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &ConfigError{Message: "jira base URL is required"}
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("invalid jira base URL: %v", err)}
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return nil, &ConfigError{Message: "jira email and API token are required"}
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.Max429Wait <= 0 {
		cfg.Max429Wait = defaultMax429Wait
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if log == nil {
		log = logrus.New()
	}

	creds := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIToken))

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authHeader:  "Basic " + creds,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:     ratelimit.New(cfg.MaxRequests, cfg.Window),
		log:         log,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		max429Wait:  cfg.Max429Wait,
	}, nil
}

// Limiter exposes the client's rate limiter for status reporting.
func (c *Client) Limiter() *ratelimit.Limiter { return c.limiter }

// Do executes one API call and decodes the JSON response into out (when
// out is non-nil). A 204 or empty body is treated as an empty success.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	var throttled time.Duration
	throttleRetries := 0

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		data, err := c.execute(ctx, method, endpoint, payload)
		if err == nil {
			if out == nil || len(data) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		if !IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Upstream throttling: honor Retry-After without consuming an
		// attempt, bounded by the cumulative 429 budget.
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			throttled += rlErr.RetryAfter
			throttleRetries++
			if throttled > c.max429Wait || throttleRetries > max429Retries {
				return &RateLimitError{
					Message:    fmt.Sprintf("upstream throttling exceeded %s budget", c.max429Wait),
					RetryAfter: rlErr.RetryAfter,
				}
			}
			c.log.WithFields(logrus.Fields{
				"retry_after": rlErr.RetryAfter,
				"path":        path,
			}).Warn("jira returned 429, waiting")
			if err := sleepCtx(ctx, rlErr.RetryAfter); err != nil {
				return err
			}
			attempt--
			continue
		}

		lastErr = err
		if attempt == c.maxAttempts {
			break
		}

		delay := c.backoffBase * time.Duration(1<<(attempt-1))
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
			"path":    path,
			"error":   err.Error(),
		}).Warn("jira request failed, retrying")
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// execute performs a single HTTP round trip and classifies the outcome.
func (c *Client) execute(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Message: "jira rejected the credentials (401); check email and API token"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Message:    "jira rate limit exceeded (429)",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(data, resp.StatusCode),
			Body:       capBody(data),
		}
	}
}

// ValidateConnection issues a lightweight authenticated GET and reports
// reachability. Only authentication failures propagate; anything else is
// reported as not connected.
func (c *Client) ValidateConnection(ctx context.Context) (bool, error) {
	var me User
	err := c.Do(ctx, http.MethodGet, "/rest/api/3/myself", nil, nil, &me)
	if err == nil {
		return true, nil
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false, err
	}
	c.log.WithField("error", err.Error()).Debug("connection validation failed")
	return false, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func capBody(data []byte) string {
	if len(data) > maxErrorBodyCapture {
		data = data[:maxErrorBodyCapture]
	}
	return string(data)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

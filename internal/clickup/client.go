// Package clickup is a ClickUp v2 REST client. Every call goes through one
// request loop that handles timeouts, rate limiting and server errors.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shineum/mailtask/internal/retry"
)

// DefaultBaseURL is the ClickUp v2 API root.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	// defaultRetryAfter applies when a 429 carries no usable Retry-After.
	defaultRetryAfter = 60 * time.Second
)

// Config holds the configuration for creating a Client.
type Config struct {
	// Token is a personal API token, sent as-is in the Authorization header.
	Token       string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// Client talks to the ClickUp API.
type Client struct {
	baseURL     string
	token       string
	maxAttempts int
	httpClient  *http.Client
	sleep       retry.SleepFunc
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return newWithOverrides(cfg, &http.Client{Timeout: timeout}, retry.Sleep)
}

// newWithOverrides creates a Client with a custom HTTP client and sleep
// function, used for testing.
func newWithOverrides(cfg Config, client *http.Client, sleep retry.SleepFunc) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       cfg.Token,
		maxAttempts: attempts,
		httpClient:  client,
		sleep:       sleep,
	}
}

// Request sends one logical API call and decodes the JSON response into
// out, which may be nil. A 429 waits for Retry-After and is retried; a
// timeout or 5xx is retried with exponential backoff. Other failures are
// returned immediately. A 429 on the last attempt yields *RateLimitError;
// everything else yields *APIError.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, query url.Values, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		last := attempt == c.maxAttempts-1
		slog.Debug("sending ClickUp request",
			"method", method,
			"endpoint", endpoint,
			"attempt", attempt+1,
		)

		data, err := c.do(ctx, method, target, payload)
		if err == nil {
			return decode(data, out)
		}

		var rateErr *RateLimitError
		var apiErr *APIError
		var delay time.Duration

		switch {
		case errors.As(err, &rateErr):
			if last {
				return rateErr
			}
			delay = rateErr.RetryAfter
			slog.Warn("rate limited by ClickUp, waiting",
				"retry_after", delay,
				"attempt", attempt+1,
			)
		case errors.As(err, &apiErr) && (apiErr.Timeout || apiErr.StatusCode >= 500):
			if last {
				return apiErr
			}
			delay = retry.Backoff(attempt)
			slog.Warn("transient ClickUp error, retrying",
				"status", apiErr.StatusCode,
				"timeout", apiErr.Timeout,
				"delay", delay,
			)
		default:
			return err
		}

		if err := c.sleep(ctx, delay); err != nil {
			return fmt.Errorf("context cancelled during retry wait: %w", err)
		}
	}

	return &APIError{Message: fmt.Sprintf("request failed after %d attempts", c.maxAttempts)}
}

// do performs a single HTTP exchange and returns the response body of a
// 2xx answer.
func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &APIError{Message: err.Error(), Timeout: true, Err: err}
		}
		return nil, &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    errorMessage(data),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	return data, nil
}

// decode treats an empty body as an empty JSON object.
func decode(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Message: "failed to decode response", Err: err}
	}
	return nil
}

// parseRetryAfter reads an integer number of seconds.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func errorMessage(data []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(data, &resp); err == nil && resp.Err != "" {
		if resp.Code != "" {
			return resp.Err + " (" + resp.Code + ")"
		}
		return resp.Err
	}
	return strings.TrimSpace(string(data))
}

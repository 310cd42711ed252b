package clickup

import (
	"fmt"
	"time"
)

// APIError is a failed ClickUp request: a non-retryable status, a server
// error or timeout that outlasted the retries, or a transport failure.
type APIError struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Timeout:
		return "ClickUp API request timed out: " + e.Message
	case e.StatusCode != 0:
		return fmt.Sprintf("ClickUp API error (HTTP %d): %s", e.StatusCode, e.Message)
	default:
		return "ClickUp API error: " + e.Message
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when ClickUp still answers 429 on the last
// attempt.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("ClickUp rate limit exceeded (retry after %s): %s", e.RetryAfter, e.Message)
}

// NotFoundError reports a workspace, space or list name with no match.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/parser"
	"github.com/shineum/mailtask/internal/retry"
)

// DefaultBaseURL is the Graph v1.0 API root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// maxRetries is the maximum number of retry attempts for transient failures.
const maxRetries = 3

const messageQuery = "$select=subject,body,from,receivedDateTime,hasAttachments&$expand=attachments($select=name)"

// Config holds the configuration for creating a Provider.
type Config struct {
	// AccessToken is a delegated Graph token with Mail.Read.
	AccessToken string
	BaseURL     string
}

// Provider reads Outlook messages from the signed-in user's mailbox.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	sleep      retry.SleepFunc
}

// New creates a Provider that authenticates with a static bearer token.
func New(ctx context.Context, cfg Config) *Provider {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.AccessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = 30 * time.Second

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return newWithOverrides(baseURL, client, retry.Sleep)
}

// newWithOverrides creates a Provider with a custom URL, HTTP client and
// sleep function, used for testing.
func newWithOverrides(baseURL string, client *http.Client, sleep retry.SleepFunc) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		sleep:      sleep,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "outlook"
}

// Extract fetches the message addressed by an Outlook web URL. Rate
// limiting and server errors are retried with backoff.
func (p *Provider) Extract(ctx context.Context, messageURL string) (*email.Content, error) {
	id := MessageIDFromURL(messageURL)
	if id == "" {
		return nil, fmt.Errorf("no message id in URL %q", messageURL)
	}

	endpoint := fmt.Sprintf("%s/me/messages/%s?%s", p.baseURL, url.PathEscape(id), messageQuery)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying Graph API request",
				"attempt", attempt,
				"max_retries", maxRetries,
			)
		}

		msg, err := p.doGetRequest(ctx, endpoint)
		if err == nil {
			return toContent(msg), nil
		}

		lastErr = err

		var graphErr *fetchError
		if !errors.As(err, &graphErr) {
			return nil, err
		}

		switch {
		case graphErr.permanent:
			return nil, graphErr
		case attempt == maxRetries:
			return nil, graphErr
		case graphErr.statusCode == http.StatusTooManyRequests:
			delay := retryAfterDelay(graphErr.retryAfter, attempt)
			slog.Info("rate limited by Graph API",
				"retry_after", delay,
			)
			if err := p.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("context cancelled during retry wait: %w", err)
			}
		default:
			delay := retry.Backoff(attempt)
			slog.Info("transient Graph API error, retrying",
				"status", graphErr.statusCode,
				"delay", delay,
			)
			if err := p.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("context cancelled during retry wait: %w", err)
			}
		}
	}

	return nil, fmt.Errorf("Graph API request failed after %d retries: %w", maxRetries, lastErr)
}

// doGetRequest performs a single GET against the Graph messages endpoint.
func (p *Provider) doGetRequest(ctx context.Context, endpoint string) (*message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.body-content-type="html"`)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &fetchError{
			message:   fmt.Sprintf("HTTP request failed: %v", err),
			transient: true,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusOK {
		var msg message
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode Graph message: %w", err)
		}
		return &msg, nil
	}

	var graphErrResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &graphErrResp); jsonErr == nil && graphErrResp.Error.Message != "" {
		return nil, classifyError(resp.StatusCode, graphErrResp.Error.Message, resp.Header.Get("Retry-After"))
	}

	return nil, classifyError(resp.StatusCode, string(body), resp.Header.Get("Retry-After"))
}

// toContent maps a Graph message to email content, converting HTML bodies
// to text.
func toContent(msg *message) *email.Content {
	content := &email.Content{
		Subject: msg.Subject,
		Date:    msg.ReceivedDateTime,
	}
	if msg.From != nil {
		content.Sender = msg.From.EmailAddress.Name
		content.SenderEmail = msg.From.EmailAddress.Address
	}
	for _, att := range msg.Attachments {
		content.Attachments = append(content.Attachments, att.Name)
	}

	if strings.EqualFold(msg.Body.ContentType, "html") {
		content.RawHTML = msg.Body.Content
		text, err := parser.HTMLToText(msg.Body.Content)
		if err != nil {
			slog.Warn("failed to convert HTML body", "error", err)
		}
		content.Body = text
	} else {
		content.Body = msg.Body.Content
	}

	return content
}

// MessageIDFromURL extracts the message id from an Outlook web URL, either
// the path segment after "/id/" or the ItemID query parameter.
func MessageIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("ItemID"); id != "" {
		return id
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "id" {
			return segments[i+1]
		}
	}
	return ""
}

// fetchError represents an error from a Graph API read with classification
// for retry logic.
type fetchError struct {
	message    string
	statusCode int
	permanent  bool
	transient  bool
	retryAfter string
}

func (e *fetchError) Error() string {
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.statusCode, e.message)
}

// classifyError categorizes an HTTP error response for retry decisions.
func classifyError(statusCode int, message, retryAfter string) *fetchError {
	err := &fetchError{
		message:    message,
		statusCode: statusCode,
		retryAfter: retryAfter,
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		err.transient = true
	case statusCode >= 500:
		err.transient = true
	default:
		err.permanent = true
	}

	return err
}

// retryAfterDelay parses the Retry-After header value and returns the appropriate delay.
// Falls back to exponential backoff if the header is missing or unparseable.
func retryAfterDelay(retryAfter string, attempt int) time.Duration {
	seconds, err := strconv.Atoi(retryAfter)
	if err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return retry.Backoff(attempt)
}

// Package gmail implements an extraction Provider backed by the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/parser"
)

// Config holds the configuration for creating a Provider.
type Config struct {
	// AccessToken is an OAuth2 access token with gmail.readonly scope.
	AccessToken string
	// BaseURL overrides the Gmail API endpoint.
	BaseURL string
}

// Provider reads messages from the authenticated user's mailbox.
type Provider struct {
	service *gmailapi.Service
}

// New creates a Provider that authenticates with a static bearer token.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.AccessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = 30 * time.Second

	return newWithClient(ctx, client, cfg.BaseURL)
}

// newWithClient builds the Gmail service on an existing HTTP client.
func newWithClient(ctx context.Context, client *http.Client, baseURL string) (*Provider, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}

	srv, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Provider{service: srv}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gmail"
}

// Extract fetches the message addressed by a Gmail web URL in raw form and
// parses it.
func (p *Provider) Extract(ctx context.Context, messageURL string) (*email.Content, error) {
	id := MessageIDFromURL(messageURL)
	if id == "" {
		return nil, fmt.Errorf("no message id in URL %q", messageURL)
	}

	msg, err := p.service.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get Gmail message %s: %w", id, err)
	}

	raw, err := decodeRaw(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Gmail message %s: %w", id, err)
	}

	content, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if content.Date == "" && msg.InternalDate > 0 {
		content.Date = time.UnixMilli(msg.InternalDate).UTC().Format(time.RFC1123Z)
	}

	return content, nil
}

// MessageIDFromURL returns the last "/"-separated segment of the URL
// fragment, e.g. "FMfcgz..." for ".../#inbox/FMfcgz...".
func MessageIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Fragment == "" {
		return ""
	}
	fragment := strings.TrimRight(u.Fragment, "/")
	if i := strings.LastIndex(fragment, "/"); i >= 0 {
		return fragment[i+1:]
	}
	return fragment
}

// decodeRaw decodes the base64url "raw" field, padded or not.
func decodeRaw(raw string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return base64.RawURLEncoding.DecodeString(raw)
	}
	return data, nil
}

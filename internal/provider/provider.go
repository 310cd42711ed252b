// Package provider defines the interface for email extraction backends and
// the factory that selects one per platform.
package provider

import (
	"context"
	"fmt"

	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/provider/gmail"
	"github.com/shineum/mailtask/internal/provider/graph"
)

// Provider is the interface that email extraction backends must implement.
type Provider interface {
	// Extract fetches the email addressed by a provider web URL.
	Extract(ctx context.Context, url string) (*email.Content, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// TokenFunc supplies the bearer token for a platform.
type TokenFunc func(ctx context.Context, platform email.Platform) (string, error)

// Factory builds the Provider for a platform.
type Factory struct {
	Token        TokenFunc
	GmailBaseURL string
	GraphBaseURL string
}

// New returns the Provider for the given platform. The platform's access
// token is obtained only here, once the platform is known.
func (f *Factory) New(ctx context.Context, platform email.Platform) (Provider, error) {
	switch platform {
	case email.PlatformGmail, email.PlatformOutlook:
	default:
		return nil, fmt.Errorf("no email provider for platform %s", platform)
	}

	token, err := f.Token(ctx, platform)
	if err != nil {
		return nil, err
	}

	if platform == email.PlatformGmail {
		return gmail.New(ctx, gmail.Config{AccessToken: token, BaseURL: f.GmailBaseURL})
	}
	return graph.New(ctx, graph.Config{AccessToken: token, BaseURL: f.GraphBaseURL}), nil
}

// Package gemini adapts the Google Gemini SDK to the analysis Generator
// interface.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shineum/mailtask/internal/analysis"
)

// Client generates text with one Gemini model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates a Client for the named model, authenticated with apiKey.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)

	c, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	m := c.GenerativeModel(model)
	m.ResponseMIMEType = "application/json"

	return &Client{client: c, model: m}, nil
}

// Connector returns an analysis.Connector that opens Clients for model.
func Connector(model string) analysis.Connector {
	return func(ctx context.Context, apiKey string) (analysis.Generator, error) {
		c, err := New(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Generate sends prompt and returns the concatenated text of the first
// candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", rateLimitError(err)
	}
	return responseText(resp)
}

// rateLimitError labels gRPC quota errors with the HTTP status the engine
// looks for.
func rateLimitError(err error) error {
	if status.Code(err) == codes.ResourceExhausted {
		return fmt.Errorf("429 rate limit: %w", err)
	}
	return err
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty Gemini response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("Gemini response has no text")
	}
	return b.String(), nil
}

// Package onepassword resolves "op://" secret references with the
// 1Password SDK and a service account token.
package onepassword

import (
	"context"
	"fmt"

	op "github.com/1password/onepassword-sdk-go"
)

// Integration identifiers reported to 1Password.
const (
	IntegrationName    = "mailtask"
	IntegrationVersion = "v1.0.0"
)

// SecretsAPI is the subset of the SDK secrets client used here.
// Used for testing with mock implementations.
type SecretsAPI interface {
	Resolve(ctx context.Context, secretReference string) (string, error)
}

// Store resolves secret references.
type Store struct {
	secrets SecretsAPI
}

// Open authenticates with a service account token.
func Open(ctx context.Context, token string) (*Store, error) {
	client, err := op.NewClient(ctx,
		op.WithServiceAccountToken(token),
		op.WithIntegrationInfo(IntegrationName, IntegrationVersion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create 1Password client: %w", err)
	}
	return &Store{secrets: client.Secrets()}, nil
}

// NewWithClient creates a Store with a custom secrets client, used for testing.
func NewWithClient(secrets SecretsAPI) *Store {
	return &Store{secrets: secrets}
}

// Resolve returns the value behind a reference such as
// "op://vault/item/field".
func (s *Store) Resolve(ctx context.Context, reference string) (string, error) {
	value, err := s.secrets.Resolve(ctx, reference)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", reference, err)
	}
	return value, nil
}

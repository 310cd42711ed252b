// Package awssm resolves secrets from AWS Secrets Manager.
package awssm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// GetSecretValueAPI is the interface for the Secrets Manager GetSecretValue
// operation. Used for testing with mock implementations.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Store resolves secret ids, optionally selecting a key of a JSON secret
// with a "#key" suffix ("prod/mailtask#clickup").
type Store struct {
	client GetSecretValueAPI
}

// Config holds the configuration for creating a Store.
type Config struct {
	Region string
	// AccessKeyID and SecretAccessKey select static credentials; when
	// either is empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// New creates a Store backed by Secrets Manager.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Store{client: secretsmanager.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a Store with a custom client, used for testing.
func NewWithClient(client GetSecretValueAPI) *Store {
	return &Store{client: client}
}

// Resolve returns the secret string for a reference.
func (s *Store) Resolve(ctx context.Context, reference string) (string, error) {
	id, key, _ := strings.Cut(reference, "#")

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	value := aws.ToString(out.SecretString)
	if key == "" {
		return value, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", id, err)
	}
	field, ok := fields[key]
	if !ok {
		return "", errors.New("secret " + id + " has no key " + key)
	}
	return fmt.Sprint(field), nil
}

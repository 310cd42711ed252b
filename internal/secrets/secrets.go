// Package secrets resolves credentials through an ordered chain of sources:
// an explicit value, an environment variable, a programmatic secret store,
// the secret store CLI and finally an interactive prompt.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shineum/mailtask/internal/config"
)

// Request describes one secret to resolve.
type Request struct {
	// Explicit is a caller-supplied value such as a command-line flag.
	Explicit string
	// EnvVar is the environment variable to consult.
	EnvVar string
	// Reference is the secret store reference, e.g. "op://vault/item/field".
	Reference string
	// DisplayName is used in logs and prompts.
	DisplayName string
	// Required secrets fall through to the prompt and fail if still empty.
	Required bool
}

// Result is the outcome of one source lookup. Reason explains a miss.
type Result struct {
	Value  string
	Found  bool
	Reason string
}

func found(value string) Result {
	return Result{Value: value, Found: true}
}

func missing(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Source is one link in the resolution chain.
type Source interface {
	Name() string
	Lookup(ctx context.Context, req Request) Result
}

// Prompter asks the user for a secret with masked input.
type Prompter interface {
	Secret(ctx context.Context, label string) (string, error)
}

// Resolver walks its sources in order and stops at the first hit.
type Resolver struct {
	sources []Source
	prompt  Prompter
}

// NewResolver creates a Resolver over the given automated sources. The
// prompter, which may be nil, is used only for required secrets.
func NewResolver(prompt Prompter, sources ...Source) *Resolver {
	return &Resolver{sources: sources, prompt: prompt}
}

// Resolve returns the secret from the first source that has it. A missing
// optional secret yields "" and no error; a missing required secret is a
// *config.Error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (string, error) {
	name, res := firstSuccess(ctx, r.sources, req)
	if res.Found {
		slog.Debug("secret resolved", "secret", req.DisplayName, "source", name)
		return res.Value, nil
	}

	if !req.Required {
		slog.Debug("optional secret not found", "secret", req.DisplayName)
		return "", nil
	}

	if r.prompt != nil {
		value, err := r.prompt.Secret(ctx, req.DisplayName)
		if err != nil {
			return "", &config.Error{Msg: fmt.Sprintf("%s is required", req.DisplayName), Err: err}
		}
		if value = strings.TrimSpace(value); value != "" {
			slog.Debug("secret resolved", "secret", req.DisplayName, "source", "prompt")
			return value, nil
		}
	}

	return "", &config.Error{Msg: fmt.Sprintf("%s is required but was not found", req.DisplayName)}
}

// firstSuccess queries sources in order and returns the first hit, logging
// the reason for every miss.
func firstSuccess(ctx context.Context, sources []Source, req Request) (string, Result) {
	for _, src := range sources {
		res := src.Lookup(ctx, req)
		if res.Found && res.Value != "" {
			return src.Name(), res
		}
		slog.Debug("secret source skipped",
			"secret", req.DisplayName,
			"source", src.Name(),
			"reason", res.Reason,
		)
	}
	return "", Result{}
}

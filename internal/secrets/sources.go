package secrets

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExplicitSource returns the caller-supplied value verbatim.
type ExplicitSource struct{}

func (ExplicitSource) Name() string { return "explicit" }

func (ExplicitSource) Lookup(_ context.Context, req Request) Result {
	if strings.TrimSpace(req.Explicit) == "" {
		return missing("no explicit value")
	}
	return found(req.Explicit)
}

// EnvSource reads the request's environment variable.
type EnvSource struct {
	lookup func(string) (string, bool)
}

// NewEnvSource creates an EnvSource over the process environment.
func NewEnvSource() *EnvSource {
	return &EnvSource{lookup: os.LookupEnv}
}

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Lookup(_ context.Context, req Request) Result {
	if req.EnvVar == "" {
		return missing("no environment variable configured")
	}
	value, ok := s.lookup(req.EnvVar)
	if !ok || strings.TrimSpace(value) == "" {
		return missing("%s not set", req.EnvVar)
	}
	return found(strings.TrimSpace(value))
}

// Store is a programmatic secret store client.
type Store interface {
	Resolve(ctx context.Context, reference string) (string, error)
}

// StoreOpener connects to a secret store using the gating token.
type StoreOpener func(ctx context.Context, token string) (Store, error)

// StoreSource looks secrets up through a programmatic store client. It is
// only active when the token environment variable is set, and the client
// is opened once and reused for later secrets.
type StoreSource struct {
	name     string
	tokenEnv string
	open     StoreOpener
	getenv   func(string) string
	store    Store
}

// NewStoreSource creates a StoreSource. A nil opener means no store backend
// is available; the source then always misses.
func NewStoreSource(name, tokenEnv string, open StoreOpener) *StoreSource {
	return &StoreSource{
		name:     name,
		tokenEnv: tokenEnv,
		open:     open,
		getenv:   os.Getenv,
	}
}

func (s *StoreSource) Name() string { return s.name }

func (s *StoreSource) Lookup(ctx context.Context, req Request) Result {
	if s.open == nil {
		return missing("secret store backend not available")
	}
	if req.Reference == "" {
		return missing("no secret reference configured")
	}

	token := s.getenv(s.tokenEnv)
	if token == "" {
		return missing("%s not set", s.tokenEnv)
	}

	if s.store == nil {
		store, err := s.open(ctx, token)
		if err != nil {
			return missing("failed to open secret store: %v", err)
		}
		s.store = store
	}

	value, err := s.store.Resolve(ctx, req.Reference)
	if err != nil {
		return missing("lookup failed: %v", err)
	}
	if value = strings.TrimSpace(value); value == "" {
		return missing("empty value")
	}
	return found(value)
}

// CLISource runs "<command> read <reference>" with a timeout. A non-zero
// exit status or empty output is a miss.
type CLISource struct {
	command string
	timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCLISource creates a CLISource for the given executable.
func NewCLISource(command string, timeout time.Duration) *CLISource {
	return &CLISource{
		command: command,
		timeout: timeout,
		run:     runCommand,
	}
}

func (s *CLISource) Name() string { return "cli" }

func (s *CLISource) Lookup(ctx context.Context, req Request) Result {
	if s.command == "" {
		return missing("no secret store CLI configured")
	}
	if req.Reference == "" {
		return missing("no secret reference configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.run(ctx, s.command, "read", req.Reference)
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return missing("%s not installed", s.command)
	case ctx.Err() != nil:
		return missing("%s timed out after %v", s.command, s.timeout)
	case err != nil:
		return missing("%s read failed: %v", s.command, err)
	}

	value := strings.TrimSpace(string(out))
	if value == "" {
		return missing("%s returned empty output", s.command)
	}
	return found(value)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

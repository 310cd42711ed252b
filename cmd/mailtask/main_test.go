package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shineum/mailtask/internal/clickup"
	"github.com/shineum/mailtask/internal/config"
	"github.com/shineum/mailtask/internal/creator"
	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/prompt"
	"github.com/shineum/mailtask/internal/task"
)

type scriptedAsker struct {
	answers []string
	asked   []string
}

func (s *scriptedAsker) Ask(_ context.Context, label, _ string) (string, error) {
	s.asked = append(s.asked, label)
	if len(s.answers) == 0 {
		return "", errors.New("no input")
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags([]string{"--workspace", "Acme", "--no-ai-summary", "--dry-run", "https://mail.google.com/mail/u/0/#inbox/abc"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.emailURL != "https://mail.google.com/mail/u/0/#inbox/abc" {
		t.Errorf("emailURL: got %q", opts.emailURL)
	}
	if opts.workspace != "Acme" || !opts.noAISummary || !opts.dryRun {
		t.Errorf("options: got %+v", opts)
	}

	opts, err = parseFlags([]string{"--email-url", "https://flag", "https://positional"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.emailURL != "https://flag" {
		t.Errorf("emailURL: got %q, want the flag value", opts.emailURL)
	}

	if _, err := parseFlags([]string{"--bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown flag, got nil")
	}
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.AI.Enabled = true
	cfg.ClickUp.List = "From config"

	err := applyFlags(cfg, &options{
		space:       "Ops",
		noAISummary: true,
		interactive: true,
		logLevel:    "WARNING",
		logFile:     "/tmp/mailtask.log",
		platform:    "outlook",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClickUp.Space != "Ops" || cfg.ClickUp.List != "From config" {
		t.Errorf("ClickUp: got %+v", cfg.ClickUp)
	}
	if cfg.AI.Enabled {
		t.Error("AI.Enabled: got true, want false")
	}
	if !cfg.UI.Interactive {
		t.Error("UI.Interactive: got false, want true")
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.File != "/tmp/mailtask.log" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	if cfg.Email.Platform != "outlook" {
		t.Errorf("Email.Platform: got %q", cfg.Email.Platform)
	}

	var cfgErr *config.Error
	if err := applyFlags(&config.Config{}, &options{logLevel: "loud"}); !errors.As(err, &cfgErr) {
		t.Errorf("expected *config.Error for bad level, got %v", err)
	}
}

func TestApplyFlags_AISummary(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	if err := applyFlags(cfg, &options{aiSummary: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.AI.Enabled {
		t.Error("AI.Enabled: got false, want true")
	}
}

func TestAskLocation(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.ClickUp.Workspace = "Acme"
	a := &scriptedAsker{answers: []string{" Ops ", "Inbox"}}

	if err := askLocation(context.Background(), cfg, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClickUp.Space != "Ops" || cfg.ClickUp.List != "Inbox" {
		t.Errorf("ClickUp: got %+v", cfg.ClickUp)
	}
	if strings.Join(a.asked, ",") != "Space name,List name" {
		t.Errorf("asked: got %v", a.asked)
	}
}

func TestAskLocation_CancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- askLocation(ctx, &config.Config{}, prompt.NewWithIO(pr, &bytes.Buffer{}))
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("askLocation: got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("askLocation still blocked after cancellation")
	}
}

func TestAsk_EmptyAnswerIsConfigError(t *testing.T) {
	t.Parallel()

	var cfgErr *config.Error
	if _, err := ask(context.Background(), &scriptedAsker{answers: []string{"  "}}, "Email URL"); !errors.As(err, &cfgErr) {
		t.Errorf("empty answer: expected *config.Error, got %v", err)
	}
	if _, err := ask(context.Background(), &scriptedAsker{}, "Email URL"); !errors.As(err, &cfgErr) {
		t.Errorf("no input: expected *config.Error, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		prefix string
	}{
		{&creator.StateError{State: creator.StateCreated, Err: &clickup.RateLimitError{Message: "slow down"}}, "rate limited by ClickUp: "},
		{&config.Error{Msg: "ClickUp API key is required but was not found"}, "configuration error: "},
		{&creator.StateError{State: creator.StateContentExtracted, Err: &email.ExtractionError{Platform: email.PlatformGmail, Err: errors.New("404")}}, "extraction error: "},
		{&creator.StateError{State: creator.StateValidated, Err: &task.CreationError{Msg: "task name is required"}}, "task creation error: "},
		{&creator.StateError{State: creator.StateListResolved, Err: &task.CreationError{Msg: "failed to resolve task list", Err: &clickup.APIError{StatusCode: 500, Message: "down"}}}, "task creation error: "},
		{&clickup.APIError{StatusCode: 401, Message: "Token invalid"}, "API error: "},
		{fmt.Errorf("wrapped: %w", errors.New("boom")), "error: "},
	}

	for _, tt := range tests {
		if got := describe(tt.err); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("describe(%v): got %q, want prefix %q", tt.err, got, tt.prefix)
		}
	}
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	if code := run([]string{"--version"}, &stdout, &bytes.Buffer{}); code != 0 {
		t.Errorf("exit code: got %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "mailtask ") {
		t.Errorf("output: got %q", stdout.String())
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{}, &stderr)
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if stderr.Len() == 0 {
		t.Error("expected an error message")
	}
}

func TestSelectStore(t *testing.T) {
	t.Parallel()

	for store, wantNil := range map[string]bool{
		config.StoreOnePassword: false,
		config.StoreAWS:         false,
		config.StoreNone:        true,
	} {
		cfg := &config.Config{}
		cfg.Secrets.Store = store
		if got := selectStore(cfg); (got == nil) != wantNil {
			t.Errorf("selectStore(%q): nil=%v, want nil=%v", store, got == nil, wantNil)
		}
	}
}

func TestAWSStoreConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        map[string]string
		wantStatic bool
	}{
		{"default chain", map[string]string{}, false},
		{"profile only", map[string]string{"AWS_PROFILE": "ops"}, false},
		{"static keys", map[string]string{"AWS_ACCESS_KEY_ID": "AKIA", "AWS_SECRET_ACCESS_KEY": "secret", "AWS_SESSION_TOKEN": "tok"}, true},
	}

	for _, tt := range tests {
		got := awsStoreConfig("eu-west-1", func(k string) string { return tt.env[k] })
		if got.Region != "eu-west-1" {
			t.Errorf("%s: Region: got %q, want %q", tt.name, got.Region, "eu-west-1")
		}
		static := got.AccessKeyID != "" && got.SecretAccessKey != ""
		if static != tt.wantStatic {
			t.Errorf("%s: static credentials: got %v, want %v", tt.name, static, tt.wantStatic)
		}
		if tt.wantStatic && got.SessionToken != "tok" {
			t.Errorf("%s: SessionToken: got %q, want %q", tt.name, got.SessionToken, "tok")
		}
	}
}

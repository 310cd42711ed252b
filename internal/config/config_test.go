package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var envVars = []string{
	"CLICKUP_BASE_URL", "CLICKUP_WORKSPACE", "CLICKUP_SPACE", "CLICKUP_LIST",
	"CLICKUP_TIMEOUT_SECONDS", "CLICKUP_MAX_ATTEMPTS",
	"AI_ENABLED", "GEMINI_MODEL", "AI_MAX_ATTEMPTS",
	"EMAIL_PLATFORM", "GRAPH_BASE_URL", "GMAIL_BASE_URL",
	"SECRETS_STORE", "SECRETS_TOKEN_ENV", "SECRETS_CLI", "SECRETS_CLI_TIMEOUT_SECONDS", "AWS_REGION",
	"CLICKUP_API_KEY_REF", "GEMINI_API_KEY_REF", "GMAIL_ACCESS_TOKEN_REF", "OUTLOOK_ACCESS_TOKEN_REF",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "MAILTASK_INTERACTIVE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ClickUp.BaseURL != DefaultBaseURL {
		t.Errorf("ClickUp.BaseURL: got %q, want %q", cfg.ClickUp.BaseURL, DefaultBaseURL)
	}
	if cfg.ClickUp.TimeoutSeconds != 30 {
		t.Errorf("ClickUp.TimeoutSeconds: got %d, want 30", cfg.ClickUp.TimeoutSeconds)
	}
	if cfg.ClickUp.MaxAttempts != 3 {
		t.Errorf("ClickUp.MaxAttempts: got %d, want 3", cfg.ClickUp.MaxAttempts)
	}
	if !cfg.AI.Enabled {
		t.Error("AI.Enabled: got false, want true")
	}
	if cfg.AI.Model != "gemini-2.5-flash-lite" {
		t.Errorf("AI.Model: got %q, want %q", cfg.AI.Model, "gemini-2.5-flash-lite")
	}
	if cfg.Secrets.Store != StoreOnePassword {
		t.Errorf("Secrets.Store: got %q, want %q", cfg.Secrets.Store, StoreOnePassword)
	}
	if cfg.Secrets.TokenEnv != "OP_SERVICE_ACCOUNT_TOKEN" {
		t.Errorf("Secrets.TokenEnv: got %q, want %q", cfg.Secrets.TokenEnv, "OP_SERVICE_ACCOUNT_TOKEN")
	}
	if cfg.Secrets.CLICommand != "op" {
		t.Errorf("Secrets.CLICommand: got %q, want %q", cfg.Secrets.CLICommand, "op")
	}
	if cfg.Secrets.CLITimeoutSeconds != 10 {
		t.Errorf("Secrets.CLITimeoutSeconds: got %d, want 10", cfg.Secrets.CLITimeoutSeconds)
	}
	if cfg.Secrets.Refs.ClickUp != DefaultClickUpRef {
		t.Errorf("Secrets.Refs.ClickUp: got %q, want %q", cfg.Secrets.Refs.ClickUp, DefaultClickUpRef)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
	if cfg.LocationConfigured() {
		t.Error("LocationConfigured: got true, want false")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLICKUP_WORKSPACE", "Acme")
	t.Setenv("CLICKUP_SPACE", "Ops")
	t.Setenv("CLICKUP_LIST", "Inbox")
	t.Setenv("CLICKUP_MAX_ATTEMPTS", "5")
	t.Setenv("AI_ENABLED", "false")
	t.Setenv("EMAIL_PLATFORM", "gmail")
	t.Setenv("SECRETS_STORE", "AWS")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.LocationConfigured() {
		t.Error("LocationConfigured: got false, want true")
	}
	if cfg.ClickUp.MaxAttempts != 5 {
		t.Errorf("ClickUp.MaxAttempts: got %d, want 5", cfg.ClickUp.MaxAttempts)
	}
	if cfg.AI.Enabled {
		t.Error("AI.Enabled: got true, want false")
	}
	if cfg.Email.Platform != "gmail" {
		t.Errorf("Email.Platform: got %q, want %q", cfg.Email.Platform, "gmail")
	}
	if cfg.Secrets.Store != StoreAWS {
		t.Errorf("Secrets.Store: got %q, want %q", cfg.Secrets.Store, StoreAWS)
	}
	if cfg.Secrets.TokenEnv != "AWS_REGION" {
		t.Errorf("Secrets.TokenEnv: got %q, want %q", cfg.Secrets.TokenEnv, "AWS_REGION")
	}
	if cfg.Secrets.AWSRegion != "eu-west-1" {
		t.Errorf("Secrets.AWSRegion: got %q, want %q", cfg.Secrets.AWSRegion, "eu-west-1")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFile_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLICKUP_LIST", "From Env")

	path := writeConfig(t, `
clickup:
  workspace: Acme
  space: Ops
  list: From YAML
ai:
  enabled: false
  model: gemini-test
secrets:
  store: none
custom_fields:
  - id: field-1
    name: Sender
    type: text
    source: SENDER_EMAIL
  - id: field-2
    type: CHECKBOX
    value: "true"
logging:
  level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ClickUp.Workspace != "Acme" {
		t.Errorf("ClickUp.Workspace: got %q, want %q", cfg.ClickUp.Workspace, "Acme")
	}
	if cfg.ClickUp.List != "From Env" {
		t.Errorf("ClickUp.List: got %q, want %q", cfg.ClickUp.List, "From Env")
	}
	if cfg.ClickUp.BaseURL != DefaultBaseURL {
		t.Errorf("ClickUp.BaseURL: got %q, want default", cfg.ClickUp.BaseURL)
	}
	if cfg.AI.Enabled {
		t.Error("AI.Enabled: got true, want false")
	}
	if cfg.AI.Model != "gemini-test" {
		t.Errorf("AI.Model: got %q, want %q", cfg.AI.Model, "gemini-test")
	}
	if cfg.Secrets.Store != StoreNone {
		t.Errorf("Secrets.Store: got %q, want %q", cfg.Secrets.Store, StoreNone)
	}
	if len(cfg.CustomFields) != 2 {
		t.Fatalf("CustomFields count: got %d, want 2", len(cfg.CustomFields))
	}
	if cfg.CustomFields[0].Type != FieldText {
		t.Errorf("CustomFields[0].Type: got %q, want %q", cfg.CustomFields[0].Type, FieldText)
	}
	if cfg.CustomFields[0].Source != SourceSenderEmail {
		t.Errorf("CustomFields[0].Source: got %q, want %q", cfg.CustomFields[0].Source, SourceSenderEmail)
	}
	if cfg.CustomFields[1].Value != "true" {
		t.Errorf("CustomFields[1].Value: got %q, want %q", cfg.CustomFields[1].Value, "true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "clickup: [unterminated")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown store", "secrets:\n  store: vault\n"},
		{"unknown platform", "email:\n  platform: yahoo\n"},
		{"unknown level", "logging:\n  level: verbose\n"},
		{"unknown format", "logging:\n  format: xml\n"},
		{"zero attempts", "clickup:\n  max_attempts: 0\n"},
		{"zero cli timeout", "secrets:\n  cli_timeout_seconds: 0\n"},
		{"negative cli timeout", "secrets:\n  cli_timeout_seconds: -5\n"},
		{"zero clickup timeout", "clickup:\n  timeout_seconds: 0\n"},
		{"field without id", "custom_fields:\n  - type: TEXT\n    source: subject\n"},
		{"field bad type", "custom_fields:\n  - id: f\n    type: RATING\n    source: subject\n"},
		{"field bad source", "custom_fields:\n  - id: f\n    type: TEXT\n    source: cc\n"},
		{"field no source or value", "custom_fields:\n  - id: f\n    type: TEXT\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			_, err := LoadFromFile(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected *config.Error, got %T", err)
			}
		})
	}
}

func TestNormalizeLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"DEBUG", "debug"},
		{"INFO", "info"},
		{"", "info"},
		{"WARNING", "warn"},
		{"warn", "warn"},
		{"ERROR", "error"},
	}

	for _, tt := range tests {
		got, err := NormalizeLevel(tt.in)
		if err != nil {
			t.Errorf("NormalizeLevel(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeLevel(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := &Error{Msg: "custom_fields[0]", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if got, want := err.Error(), "custom_fields[0]: boom"; got != want {
		t.Errorf("Error(): got %q, want %q", got, want)
	}
}

// Package config provides layered configuration loading for mailtask:
// defaults, an optional YAML file, an optional .env file and environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the ClickUp v2 REST API root.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

// DefaultModel is the Gemini model used for email analysis.
const DefaultModel = "gemini-2.5-flash-lite"

// Default 1Password references for the two primary credentials.
const (
	DefaultClickUpRef = "op://Home Server/ClickUp personal API token/credential"
	DefaultGeminiRef  = "op://Home Server/nftoo3gsi3wpx7z5bdmcsvr7p4/credential"
)

// Secret store backends.
const (
	StoreOnePassword = "onepassword"
	StoreAWS         = "aws"
	StoreNone        = "none"
)

// Config holds the complete application configuration.
type Config struct {
	ClickUp      ClickUpConfig  `yaml:"clickup"`
	AI           AIConfig       `yaml:"ai"`
	Email        EmailConfig    `yaml:"email"`
	Secrets      SecretsConfig  `yaml:"secrets"`
	CustomFields []FieldMapping `yaml:"custom_fields"`
	Logging      LoggingConfig  `yaml:"logging"`
	UI           UIConfig       `yaml:"ui"`
}

// ClickUpConfig holds the task tracker location and HTTP behaviour.
type ClickUpConfig struct {
	BaseURL        string `yaml:"base_url" env:"CLICKUP_BASE_URL"`
	Workspace      string `yaml:"workspace" env:"CLICKUP_WORKSPACE"`
	Space          string `yaml:"space" env:"CLICKUP_SPACE"`
	List           string `yaml:"list" env:"CLICKUP_LIST"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CLICKUP_TIMEOUT_SECONDS"`
	MaxAttempts    int    `yaml:"max_attempts" env:"CLICKUP_MAX_ATTEMPTS"`
}

// AIConfig holds Gemini analysis settings.
type AIConfig struct {
	Enabled     bool   `yaml:"enabled" env:"AI_ENABLED"`
	Model       string `yaml:"model" env:"GEMINI_MODEL"`
	MaxAttempts int    `yaml:"max_attempts" env:"AI_MAX_ATTEMPTS"`
}

// EmailConfig holds email provider settings.
type EmailConfig struct {
	// Platform skips URL detection when set (GMAIL or OUTLOOK).
	Platform     string `yaml:"platform" env:"EMAIL_PLATFORM"`
	GraphBaseURL string `yaml:"graph_base_url" env:"GRAPH_BASE_URL"`
	GmailBaseURL string `yaml:"gmail_base_url" env:"GMAIL_BASE_URL"`
}

// SecretsConfig controls how credentials are looked up.
type SecretsConfig struct {
	Store             string     `yaml:"store" env:"SECRETS_STORE"`
	TokenEnv          string     `yaml:"token_env" env:"SECRETS_TOKEN_ENV"`
	CLICommand        string     `yaml:"cli_command" env:"SECRETS_CLI"`
	CLITimeoutSeconds int        `yaml:"cli_timeout_seconds" env:"SECRETS_CLI_TIMEOUT_SECONDS"`
	AWSRegion         string     `yaml:"aws_region" env:"AWS_REGION"`
	Refs              SecretRefs `yaml:"refs"`
}

// SecretRefs are secret store references, one per credential.
type SecretRefs struct {
	ClickUp string `yaml:"clickup" env:"CLICKUP_API_KEY_REF"`
	Gemini  string `yaml:"gemini" env:"GEMINI_API_KEY_REF"`
	Gmail   string `yaml:"gmail" env:"GMAIL_ACCESS_TOKEN_REF"`
	Outlook string `yaml:"outlook" env:"OUTLOOK_ACCESS_TOKEN_REF"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

// UIConfig holds terminal interaction settings.
type UIConfig struct {
	Interactive bool `yaml:"interactive" env:"MAILTASK_INTERACTIVE"`
}

// Load loads configuration from environment variables (and a .env file in
// the working directory, if present) on top of the defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LocationConfigured returns true if workspace, space and list are all named.
func (c *Config) LocationConfigured() bool {
	return c.ClickUp.Workspace != "" && c.ClickUp.Space != "" && c.ClickUp.List != ""
}

// Validate checks enumerated values and custom field mappings.
// Log level and store names are normalized in place.
func (c *Config) Validate() error {
	level, err := NormalizeLevel(c.Logging.Level)
	if err != nil {
		return err
	}
	c.Logging.Level = level

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return &Error{Msg: fmt.Sprintf("unknown log format %q", c.Logging.Format)}
	}

	c.Secrets.Store = strings.ToLower(c.Secrets.Store)
	switch c.Secrets.Store {
	case StoreOnePassword, StoreAWS, StoreNone:
	default:
		return &Error{Msg: fmt.Sprintf("unknown secret store %q", c.Secrets.Store)}
	}

	switch strings.ToUpper(c.Email.Platform) {
	case "", "GMAIL", "OUTLOOK":
	default:
		return &Error{Msg: fmt.Sprintf("unknown email platform %q", c.Email.Platform)}
	}

	if c.ClickUp.MaxAttempts < 1 || c.AI.MaxAttempts < 1 {
		return &Error{Msg: "max_attempts must be at least 1"}
	}

	if c.ClickUp.TimeoutSeconds < 1 || c.Secrets.CLITimeoutSeconds < 1 {
		return &Error{Msg: "timeout_seconds must be at least 1"}
	}

	for i, m := range c.CustomFields {
		if err := m.validate(); err != nil {
			return &Error{Msg: fmt.Sprintf("custom_fields[%d]", i), Err: err}
		}
	}

	return nil
}

// NormalizeLevel maps user-facing level names (including the upper-case
// DEBUG/INFO/WARNING/ERROR forms) to slog level names.
func NormalizeLevel(level string) (string, error) {
	switch strings.ToLower(level) {
	case "debug":
		return "debug", nil
	case "", "info":
		return "info", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", &Error{Msg: fmt.Sprintf("unknown log level %q", level)}
	}
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.ClickUp.BaseURL = DefaultBaseURL
	c.ClickUp.TimeoutSeconds = 30
	c.ClickUp.MaxAttempts = 3

	c.AI.Enabled = true
	c.AI.Model = DefaultModel
	c.AI.MaxAttempts = 3

	c.Email.GraphBaseURL = "https://graph.microsoft.com/v1.0"

	c.Secrets.Store = StoreOnePassword
	c.Secrets.CLICommand = "op"
	c.Secrets.CLITimeoutSeconds = 10
	c.Secrets.Refs.ClickUp = DefaultClickUpRef
	c.Secrets.Refs.Gemini = DefaultGeminiRef

	c.Logging.Level = "info"
	c.Logging.Format = "text"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values. A .env
// file, when present, is loaded first without clobbering the real
// environment.
func (c *Config) applyEnvVars() error {
	_ = godotenv.Load()

	sections := []any{
		&c.ClickUp,
		&c.AI,
		&c.Email,
		&c.Secrets,
		&c.Logging,
		&c.UI,
	}
	for _, s := range sections {
		if err := env.Parse(s); err != nil {
			return fmt.Errorf("failed to parse environment: %w", err)
		}
	}

	if c.Secrets.TokenEnv == "" {
		c.Secrets.TokenEnv = defaultTokenEnv(c.Secrets.Store)
	}

	return nil
}

// defaultTokenEnv names the environment variable whose presence enables the
// programmatic secret store.
func defaultTokenEnv(store string) string {
	switch strings.ToLower(store) {
	case StoreAWS:
		return "AWS_REGION"
	default:
		return "OP_SERVICE_ACCOUNT_TOKEN"
	}
}

// Package main is the entry point for the mailtask command, which turns an
// email URL into a ClickUp task.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/mailtask/internal/analysis"
	"github.com/shineum/mailtask/internal/analysis/gemini"
	"github.com/shineum/mailtask/internal/clickup"
	"github.com/shineum/mailtask/internal/config"
	"github.com/shineum/mailtask/internal/creator"
	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/logging"
	"github.com/shineum/mailtask/internal/preview"
	"github.com/shineum/mailtask/internal/prompt"
	"github.com/shineum/mailtask/internal/provider"
	"github.com/shineum/mailtask/internal/secrets"
	"github.com/shineum/mailtask/internal/secrets/awssm"
	"github.com/shineum/mailtask/internal/secrets/onepassword"
	"github.com/shineum/mailtask/internal/task"
)

var version = "dev"

// options are the command-line flags.
type options struct {
	configPath  string
	emailURL    string
	platform    string
	apiKey      string
	geminiKey   string
	workspace   string
	space       string
	list        string
	aiSummary   bool
	noAISummary bool
	interactive bool
	dryRun      bool
	listFields  bool
	logLevel    string
	logFile     string
	showVersion bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, "mailtask", version)
		return 0
	}

	// Load configuration
	cfg, err := loadConfig(opts.configPath)
	if err == nil {
		err = applyFlags(cfg, opts)
	}
	if err != nil {
		fmt.Fprintln(stderr, describe(err))
		return 1
	}

	// Setup structured logging
	closeLog, err := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	defer closeLog()
	slog.SetDefault(slog.Default().With("run_id", uuid.NewString()))

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("starting mailtask",
		"version", version,
		"ai_enabled", cfg.AI.Enabled,
		"secret_store", cfg.Secrets.Store,
		"dry_run", opts.dryRun,
	)

	err = execute(ctx, cfg, opts, stdout)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, creator.ErrCancelled), ctx.Err() != nil:
		fmt.Fprintln(stderr, "cancelled")
		return 0
	default:
		slog.Debug("run failed", "error", err)
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mailtask", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "usage: mailtask [flags] [email-url]")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "path to YAML configuration file (optional)")
	fs.StringVar(&opts.emailURL, "email-url", "", "URL of the email to turn into a task")
	fs.StringVar(&opts.platform, "email-platform", "", "email platform (GMAIL or OUTLOOK), detected from the URL when empty")
	fs.StringVar(&opts.apiKey, "api-key", "", "ClickUp API key")
	fs.StringVar(&opts.geminiKey, "gemini-api-key", "", "Gemini API key")
	fs.StringVar(&opts.workspace, "workspace", "", "ClickUp workspace name")
	fs.StringVar(&opts.space, "space", "", "ClickUp space name")
	fs.StringVar(&opts.list, "list", "", "ClickUp list name")
	fs.BoolVar(&opts.aiSummary, "ai-summary", false, "summarize the email with Gemini")
	fs.BoolVar(&opts.noAISummary, "no-ai-summary", false, "do not summarize the email with Gemini")
	fs.BoolVar(&opts.interactive, "interactive", false, "preview the task and ask before creating it")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "build and print the task without creating it")
	fs.BoolVar(&opts.listFields, "list-fields", false, "print the custom fields of the list and exit")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (DEBUG, INFO, WARNING, ERROR)")
	fs.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")
	fs.BoolVar(&opts.showVersion, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.emailURL == "" && fs.NArg() > 0 {
		opts.emailURL = fs.Arg(0)
	}
	return opts, nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// applyFlags lets command-line flags override the loaded configuration.
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.workspace != "" {
		cfg.ClickUp.Workspace = opts.workspace
	}
	if opts.space != "" {
		cfg.ClickUp.Space = opts.space
	}
	if opts.list != "" {
		cfg.ClickUp.List = opts.list
	}
	if opts.platform != "" {
		cfg.Email.Platform = opts.platform
	}
	switch {
	case opts.noAISummary:
		cfg.AI.Enabled = false
	case opts.aiSummary:
		cfg.AI.Enabled = true
	}
	if opts.interactive {
		cfg.UI.Interactive = true
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	if opts.logLevel != "" {
		level, err := config.NormalizeLevel(opts.logLevel)
		if err != nil {
			return err
		}
		cfg.Logging.Level = level
	}
	return nil
}

// execute resolves credentials and runs one task creation.
func execute(ctx context.Context, cfg *config.Config, opts *options, stdout io.Writer) error {
	term := prompt.New()
	printer := preview.NewWithWriter(stdout)
	resolver := newResolver(cfg, term)

	clickupKey, err := resolver.Resolve(ctx, secrets.Request{
		Explicit:    opts.apiKey,
		EnvVar:      "CLICKUP_API_KEY",
		Reference:   cfg.Secrets.Refs.ClickUp,
		DisplayName: "ClickUp API key",
		Required:    !opts.dryRun,
	})
	if err != nil {
		return err
	}

	var geminiKey string
	if cfg.AI.Enabled {
		geminiKey, err = resolver.Resolve(ctx, secrets.Request{
			Explicit:    opts.geminiKey,
			EnvVar:      "GEMINI_API_KEY",
			Reference:   cfg.Secrets.Refs.Gemini,
			DisplayName: "Gemini API key",
		})
		if err != nil {
			return err
		}
	}

	tracker := clickup.New(clickup.Config{
		Token:       clickupKey,
		BaseURL:     cfg.ClickUp.BaseURL,
		Timeout:     time.Duration(cfg.ClickUp.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.ClickUp.MaxAttempts,
	})

	if opts.listFields {
		if err := askLocation(ctx, cfg, term); err != nil {
			return err
		}
		listID, err := tracker.ResolveListID(ctx, cfg.ClickUp.Workspace, cfg.ClickUp.Space, cfg.ClickUp.List)
		if err != nil {
			return err
		}
		fields, err := tracker.CustomFields(ctx, listID)
		if err != nil {
			return err
		}
		return printer.Fields(fields)
	}

	emailURL := opts.emailURL
	if emailURL == "" {
		if emailURL, err = ask(ctx, term, "Email URL"); err != nil {
			return err
		}
	}

	platform := email.PlatformUnknown
	if cfg.Email.Platform != "" {
		if platform, err = email.ParsePlatform(cfg.Email.Platform); err != nil {
			return err
		}
	}

	if !opts.dryRun {
		if err := askLocation(ctx, cfg, term); err != nil {
			return err
		}
	}

	var confirm creator.ConfirmFunc
	if cfg.UI.Interactive {
		confirm = func(content *email.Content, a *analysis.Analysis, payload *task.Payload) (bool, error) {
			if err := printer.Task(content, a, payload); err != nil {
				return false, err
			}
			return term.Confirm(ctx, "Create this task?", true)
		}
	}

	c := creator.New(creator.Config{
		Providers: &provider.Factory{
			Token:        providerToken(resolver, cfg),
			GmailBaseURL: cfg.Email.GmailBaseURL,
			GraphBaseURL: cfg.Email.GraphBaseURL,
		},
		Analyzer: analysis.NewEngine(gemini.Connector(cfg.AI.Model), cfg.AI.MaxAttempts),
		Builder:  task.NewBuilder(cfg.CustomFields),
		Tracker:  tracker,
		Confirm:  confirm,
	})

	res, err := c.Run(ctx, creator.Request{
		URL:       emailURL,
		Platform:  platform,
		AIEnabled: cfg.AI.Enabled,
		GeminiKey: geminiKey,
		Workspace: cfg.ClickUp.Workspace,
		Space:     cfg.ClickUp.Space,
		List:      cfg.ClickUp.List,
		DryRun:    opts.dryRun,
	})
	if err != nil {
		return err
	}

	if opts.dryRun {
		return printer.Task(res.Content, res.Analysis, res.Payload)
	}

	slog.Info("task created", "task_id", res.Task.ID, "url", res.Task.URL)
	return printer.Created(res.Task)
}

// newResolver builds the secret chain: explicit value, environment,
// programmatic store, store CLI, then the prompt for required secrets.
func newResolver(cfg *config.Config, term secrets.Prompter) *secrets.Resolver {
	return secrets.NewResolver(term,
		secrets.ExplicitSource{},
		secrets.NewEnvSource(),
		secrets.NewStoreSource(cfg.Secrets.Store, cfg.Secrets.TokenEnv, selectStore(cfg)),
		secrets.NewCLISource(cfg.Secrets.CLICommand, time.Duration(cfg.Secrets.CLITimeoutSeconds)*time.Second),
	)
}

// selectStore chooses the programmatic secret store backend.
func selectStore(cfg *config.Config) secrets.StoreOpener {
	switch cfg.Secrets.Store {
	case config.StoreOnePassword:
		return func(ctx context.Context, token string) (secrets.Store, error) {
			s, err := onepassword.Open(ctx, token)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	case config.StoreAWS:
		region := cfg.Secrets.AWSRegion
		return func(ctx context.Context, token string) (secrets.Store, error) {
			r := region
			if r == "" {
				r = token
			}
			s, err := awssm.New(ctx, awsStoreConfig(r, os.Getenv))
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	default:
		return nil
	}
}

// awsStoreConfig uses static credentials when an access key pair is in the
// environment and leaves the rest to the SDK default chain.
func awsStoreConfig(region string, getenv func(string) string) awssm.Config {
	return awssm.Config{
		Region:          region,
		AccessKeyID:     getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    getenv("AWS_SESSION_TOKEN"),
	}
}

// providerToken resolves the access token of the detected platform.
func providerToken(resolver *secrets.Resolver, cfg *config.Config) provider.TokenFunc {
	return func(ctx context.Context, platform email.Platform) (string, error) {
		req := secrets.Request{Required: true}
		switch platform {
		case email.PlatformGmail:
			req.EnvVar = "GMAIL_ACCESS_TOKEN"
			req.Reference = cfg.Secrets.Refs.Gmail
			req.DisplayName = "Gmail access token"
		default:
			req.EnvVar = "OUTLOOK_ACCESS_TOKEN"
			req.Reference = cfg.Secrets.Refs.Outlook
			req.DisplayName = "Outlook access token"
		}
		return resolver.Resolve(ctx, req)
	}
}

// asker is the subset of the terminal used for missing values.
type asker interface {
	Ask(ctx context.Context, label, def string) (string, error)
}

// askLocation prompts for any missing workspace, space or list name.
func askLocation(ctx context.Context, cfg *config.Config, term asker) error {
	fields := []struct {
		label string
		value *string
	}{
		{"Workspace name", &cfg.ClickUp.Workspace},
		{"Space name", &cfg.ClickUp.Space},
		{"List name", &cfg.ClickUp.List},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		answer, err := ask(ctx, term, f.label)
		if err != nil {
			return err
		}
		*f.value = answer
	}
	return nil
}

// ask requires a non-empty answer.
func ask(ctx context.Context, term asker, label string) (string, error) {
	answer, err := term.Ask(ctx, label, "")
	if err != nil {
		return "", &config.Error{Msg: label + " is required", Err: err}
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return "", &config.Error{Msg: label + " is required"}
	}
	return answer, nil
}

// describe renders an error with its category for the user.
func describe(err error) string {
	var (
		rateErr     *clickup.RateLimitError
		apiErr      *clickup.APIError
		cfgErr      *config.Error
		extractErr  *email.ExtractionError
		creationErr *task.CreationError
	)
	switch {
	case errors.As(err, &rateErr):
		return "rate limited by ClickUp: " + rateErr.Error()
	case errors.As(err, &cfgErr):
		return "configuration error: " + cfgErr.Error()
	case errors.As(err, &extractErr):
		return "extraction error: " + extractErr.Error()
	case errors.As(err, &creationErr):
		return "task creation error: " + creationErr.Error()
	case errors.As(err, &apiErr):
		return "API error: " + apiErr.Error()
	default:
		return "error: " + err.Error()
	}
}

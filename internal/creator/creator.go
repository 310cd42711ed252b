// Package creator drives one email-to-task run through a fixed sequence of
// states: platform detection, extraction, analysis, payload build and
// validation, list resolution and task creation.
package creator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/mailtask/internal/analysis"
	"github.com/shineum/mailtask/internal/clickup"
	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/provider"
	"github.com/shineum/mailtask/internal/task"
)

// ErrCancelled is returned when the confirmation hook declines the task.
var ErrCancelled = errors.New("task creation cancelled")

// Providers builds the email provider for a platform.
type Providers interface {
	New(ctx context.Context, platform email.Platform) (provider.Provider, error)
}

// Analyzer summarizes an email. It must not fail.
type Analyzer interface {
	Analyze(ctx context.Context, content *email.Content, apiKey string) analysis.Analysis
}

// Tracker is the task tracker the run writes to.
type Tracker interface {
	ResolveListID(ctx context.Context, workspace, space, list string) (string, error)
	CreateTask(ctx context.Context, listID string, payload *task.Payload) (*clickup.Task, error)
}

// ConfirmFunc is shown the validated payload and reports whether to create
// the task.
type ConfirmFunc func(content *email.Content, a *analysis.Analysis, payload *task.Payload) (bool, error)

// Config holds the collaborators of a Creator.
type Config struct {
	Providers Providers
	Analyzer  Analyzer
	Builder   *task.Builder
	Tracker   Tracker
	// Confirm is optional; when set it runs after validation.
	Confirm ConfirmFunc
}

// Request describes one run.
type Request struct {
	URL string
	// Platform skips URL detection unless it is PlatformUnknown.
	Platform  email.Platform
	AIEnabled bool
	GeminiKey string
	Workspace string
	Space     string
	List      string
	// DryRun stops after validation without touching the tracker.
	DryRun bool
}

// Result is what a run produced. Fields are filled as states are reached.
type Result struct {
	State    State
	Platform email.Platform
	Content  *email.Content
	Analysis *analysis.Analysis
	Payload  *task.Payload
	ListID   string
	Task     *clickup.Task
}

// Creator runs the task creation pipeline.
type Creator struct {
	config Config
}

// New creates a Creator. A nil Builder builds payloads without custom fields.
func New(cfg Config) *Creator {
	if cfg.Builder == nil {
		cfg.Builder = task.NewBuilder(nil)
	}
	return &Creator{config: cfg}
}

// Run performs one single-pass run. Every failure is a *StateError naming
// the state that could not be reached. The partial Result is returned
// alongside the error.
func (c *Creator) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: StateInit}

	// Init -> PlatformResolved
	platform := req.Platform
	if platform == email.PlatformUnknown {
		detected, err := email.DetectPlatform(req.URL)
		if err != nil {
			return res, fail(StatePlatformResolved, err)
		}
		platform = detected
	}
	res.Platform = platform
	c.advance(res, StatePlatformResolved, "platform", platform.String())

	// PlatformResolved -> ContentExtracted
	p, err := c.config.Providers.New(ctx, platform)
	if err != nil {
		return res, fail(StateContentExtracted, err)
	}
	content, err := p.Extract(ctx, req.URL)
	if err != nil {
		return res, fail(StateContentExtracted, &email.ExtractionError{Platform: platform, URL: req.URL, Err: err})
	}
	res.Content = content
	c.advance(res, StateContentExtracted, "provider", p.Name(), "subject", content.Subject)

	// ContentExtracted -> Analyzed, skipped without AI or a key
	if req.AIEnabled && req.GeminiKey != "" && c.config.Analyzer != nil {
		a := c.config.Analyzer.Analyze(ctx, content, req.GeminiKey)
		res.Analysis = &a
		c.advance(res, StateAnalyzed, "confidence", a.Confidence, "heuristic", a.Heuristic)
	} else {
		slog.Debug("skipping email analysis",
			"ai_enabled", req.AIEnabled,
			"has_key", req.GeminiKey != "",
		)
	}

	// -> PayloadBuilt -> Validated
	res.Payload = c.config.Builder.Build(content, res.Analysis)
	c.advance(res, StatePayloadBuilt, "custom_fields", len(res.Payload.CustomFields))

	if err := task.Validate(res.Payload); err != nil {
		return res, fail(StateValidated, err)
	}
	c.advance(res, StateValidated)

	if req.DryRun {
		slog.Info("dry run, not creating task", "name", res.Payload.Name)
		return res, nil
	}

	if c.config.Confirm != nil {
		ok, err := c.config.Confirm(content, res.Analysis, res.Payload)
		if err != nil {
			return res, fail(StateListResolved, err)
		}
		if !ok {
			return res, fail(StateListResolved, ErrCancelled)
		}
	}

	if err := ctx.Err(); err != nil {
		return res, fail(StateListResolved, err)
	}

	// Validated -> ListResolved
	listID, err := c.config.Tracker.ResolveListID(ctx, req.Workspace, req.Space, req.List)
	if err != nil {
		return res, fail(StateListResolved, &task.CreationError{Msg: "failed to resolve task list", Err: err})
	}
	res.ListID = listID
	c.advance(res, StateListResolved, "list_id", listID)

	// ListResolved -> Created
	created, err := c.config.Tracker.CreateTask(ctx, listID, res.Payload)
	if err != nil {
		return res, fail(StateCreated, err)
	}
	res.Task = created
	c.advance(res, StateCreated, "task_id", created.ID, "url", created.URL)

	return res, nil
}

func (c *Creator) advance(res *Result, s State, args ...any) {
	res.State = s
	slog.Debug("task creation state", append([]any{"state", s.String()}, args...)...)
}

func fail(s State, err error) error {
	return &StateError{State: s, Err: err}
}

// StateError wraps a failure with the state the run was entering.
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

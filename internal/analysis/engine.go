package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/retry"
)

// defaultRateLimitDelay is used when a rate limit error names no delay.
const defaultRateLimitDelay = 60 * time.Second

var retryDelayRegex = regexp.MustCompile(`(?i)retry.*?(\d+)`)

// Generator sends a prompt to a text model and returns its reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Connector opens a Generator for an API key.
type Connector func(ctx context.Context, apiKey string) (Generator, error)

// Engine runs model analysis with retries. Analyze never fails.
type Engine struct {
	connect     Connector
	maxAttempts int
	sleep       retry.SleepFunc
}

// NewEngine creates an Engine. A nil connector means no model backend is
// available and every analysis uses the heuristic.
func NewEngine(connect Connector, maxAttempts int) *Engine {
	return newWithSleep(connect, maxAttempts, retry.Sleep)
}

// newWithSleep creates an Engine with a custom sleep function, used for testing.
func newWithSleep(connect Connector, maxAttempts int, sleep retry.SleepFunc) *Engine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Engine{connect: connect, maxAttempts: maxAttempts, sleep: sleep}
}

// Analyze summarizes the email with the model, or with Heuristic when the
// model is unavailable, has no key, or keeps failing.
func (e *Engine) Analyze(ctx context.Context, content *email.Content, apiKey string) Analysis {
	out := e.run(ctx, content, apiKey)
	if out.parsed {
		slog.Info("email analysis completed", "confidence", out.analysis.Confidence)
		return out.analysis
	}

	slog.Warn("falling back to basic email analysis", "reason", out.reason)
	return Heuristic(content)
}

// outcome is either a parsed analysis or a request to use the heuristic.
type outcome struct {
	analysis Analysis
	parsed   bool
	reason   string
}

func parsed(a Analysis) outcome {
	return outcome{analysis: a, parsed: true}
}

func useHeuristic(format string, args ...any) outcome {
	return outcome{reason: fmt.Sprintf(format, args...)}
}

// decodeError marks a reply that was received but could not be decoded.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return "failed to parse model response: " + e.err.Error()
}

func (e *decodeError) Unwrap() error {
	return e.err
}

func (e *Engine) run(ctx context.Context, content *email.Content, apiKey string) outcome {
	if e.connect == nil {
		return useHeuristic("AI backend not available")
	}
	if apiKey == "" {
		return useHeuristic("no API key")
	}

	gen, err := e.connect(ctx, apiKey)
	if err != nil {
		return useHeuristic("AI backend unavailable: %v", err)
	}
	if c, ok := gen.(io.Closer); ok {
		defer c.Close()
	}

	prompt := BuildPrompt(content)

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		last := attempt == e.maxAttempts-1
		slog.Debug("sending analysis request",
			"attempt", attempt+1,
			"max_attempts", e.maxAttempts,
		)

		text, err := gen.Generate(ctx, prompt)
		if err == nil {
			a, parseErr := ParseResponse(text)
			if parseErr == nil {
				return parsed(a)
			}
			err = &decodeError{err: parseErr}
		}

		if ctx.Err() != nil {
			return useHeuristic("cancelled: %v", ctx.Err())
		}

		var delay time.Duration
		if isRateLimit(err) {
			if last {
				return useHeuristic("rate limit exceeded, max attempts reached")
			}
			delay = RetryDelay(err.Error())
			slog.Warn("rate limit hit, retrying", "retry_after", delay)
		} else {
			if last {
				return useHeuristic("analysis failed: %v", err)
			}
			delay = retry.Backoff(attempt)
			slog.Warn("analysis attempt failed, retrying",
				"error", err,
				"delay", delay,
			)
		}

		if err := e.sleep(ctx, delay); err != nil {
			return useHeuristic("cancelled during retry wait: %v", err)
		}
	}

	return useHeuristic("attempts exhausted")
}

// isRateLimit matches errors whose text mentions HTTP 429 or a rate limit.
// Decode failures are never rate limits.
func isRateLimit(err error) bool {
	var de *decodeError
	if errors.As(err, &de) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit")
}

// RetryDelay scans an error message for "retry ... <seconds>" and falls
// back to 60 seconds.
func RetryDelay(msg string) time.Duration {
	m := retryDelayRegex.FindStringSubmatch(msg)
	if m == nil {
		return defaultRateLimitDelay
	}
	seconds, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultRateLimitDelay
	}
	return time.Duration(seconds) * time.Second
}

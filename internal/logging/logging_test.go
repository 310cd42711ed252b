package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "info", Format: "text", Console: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	logger.Debug("hidden")
	logger.Info("task created", "task_id", "abc")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("debug record should be filtered:\n%s", output)
	}
	if !strings.Contains(output, "task created") || !strings.Contains(output, "task_id=abc") {
		t.Errorf("output missing record:\n%s", output)
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("output to a buffer should not be coloured: %q", output)
	}
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "debug", Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Debug("sending request", "attempt", 1)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "sending request" || record["level"] != "DEBUG" {
		t.Errorf("record: got %v", record)
	}
}

func TestNew_FileFanout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mailtask.log")
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "warn", Format: "text", File: path, Console: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.With("run_id", "r-1").Warn("rate limited", "retry_after", "5s")
	logger.Info("filtered")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(buf.String(), "rate limited") {
		t.Errorf("console missing record:\n%s", buf.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log file lines: got %d, want 1\n%s", len(lines), data)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log file line is not JSON: %v", err)
	}
	if record["run_id"] != "r-1" || record["retry_after"] != "5s" {
		t.Errorf("record: got %v", record)
	}
}

func TestNew_BadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "dir", "mailtask.log")
	if _, _, err := New(Options{File: path, Console: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unwritable log file, got nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}

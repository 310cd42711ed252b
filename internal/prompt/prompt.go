// Package prompt implements the terminal interactions: line input, yes/no
// confirmation and masked secret entry.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before an answer is read.
var ErrNoInput = errors.New("no input")

// Terminal reads answers from in and writes questions to out. Reads are
// abandoned when the context is cancelled; an abandoned read is picked up
// by the next question instead of racing a second reader.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	fd      int
	isTerm  bool
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// New creates a Terminal on stdin and stderr.
func New() *Terminal {
	fd := int(os.Stdin.Fd())
	return &Terminal{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stderr,
		fd:     fd,
		isTerm: term.IsTerminal(fd),
	}
}

// NewWithIO creates a Terminal over arbitrary streams. Secret input is not
// masked. This is useful for testing.
func NewWithIO(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, fd: -1}
}

// Interactive reports whether input comes from a terminal.
func (t *Terminal) Interactive() bool {
	return t.isTerm
}

// Ask prints label and returns the trimmed answer, or def when the answer
// is empty.
func (t *Terminal) Ask(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", label)
	}

	line, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Confirm asks a yes/no question. An empty answer selects def.
func (t *Terminal) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	for {
		fmt.Fprintf(t.out, "%s [%s]: ", label, hint)
		line, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer y or n.")
	}
}

// Secret asks for a value without echoing it when attached to a terminal.
func (t *Terminal) Secret(ctx context.Context, label string) (string, error) {
	fmt.Fprintf(t.out, "Enter %s: ", label)

	if !t.isTerm {
		return t.readLine(ctx)
	}

	line, err := t.await(ctx, func() lineResult {
		b, err := term.ReadPassword(t.fd)
		return lineResult{line: string(b), err: err}
	})
	fmt.Fprintln(t.out)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	line, err := t.await(ctx, func() lineResult {
		line, err := t.in.ReadString('\n')
		return lineResult{line: line, err: err}
	})
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// await runs read in the background and waits for it or for ctx.
func (t *Terminal) await(ctx context.Context, read func() lineResult) (string, error) {
	if t.pending == nil {
		ch := make(chan lineResult, 1)
		go func() { ch <- read() }()
		t.pending = ch
	}

	select {
	case res := <-t.pending:
		t.pending = nil
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Package preview renders task payloads, analyses and list schemas for the
// terminal.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mailtask/internal/analysis"
	"github.com/shineum/mailtask/internal/clickup"
	"github.com/shineum/mailtask/internal/email"
	"github.com/shineum/mailtask/internal/task"
)

const rule = "========================================\n"

// Printer writes human-readable blocks.
type Printer struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a Printer that writes to os.Stdout.
func New() *Printer {
	return &Printer{writer: os.Stdout}
}

// NewWithWriter creates a Printer that writes to the given writer.
func NewWithWriter(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// Task prints the email, the analysis (if any) and the payload that would
// be sent.
func (p *Printer) Task(content *email.Content, a *analysis.Analysis, payload *task.Payload) error {
	var b strings.Builder

	b.WriteString(rule)
	fmt.Fprintf(&b, "From: %s\n", sender(content))
	fmt.Fprintf(&b, "Subject: %s\n", content.Subject)
	if content.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", content.Date)
	}
	if len(content.Attachments) > 0 {
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(content.Attachments, ", "))
	}

	if a != nil {
		b.WriteString("----------------------------------------\n")
		source := "AI"
		if a.Heuristic {
			source = "basic"
		}
		fmt.Fprintf(&b, "Analysis (%s, confidence %.2f)\n", source, a.Confidence)
		fmt.Fprintf(&b, "Priority: %s\n", a.Priority)
		if a.DueDate != nil {
			fmt.Fprintf(&b, "Due: %s\n", *a.DueDate)
		}
		for _, point := range a.KeyPoints {
			fmt.Fprintf(&b, "  - %s\n", point)
		}
	}

	b.WriteString("----------------------------------------\n")
	fmt.Fprintf(&b, "Task: %s\n", payload.Name)
	b.WriteString("Description:\n")
	b.WriteString(payload.Description + "\n")
	for _, f := range payload.CustomFields {
		label := f.ID
		if f.Name != "" {
			label = f.Name
		}
		fmt.Fprintf(&b, "Field %s: %v\n", label, f.Value)
	}
	b.WriteString(rule)

	_, err := fmt.Fprint(p.writer, b.String())
	return err
}

// Fields prints a list's custom field schema, one field per line.
func (p *Printer) Fields(fields []clickup.Field) error {
	var b strings.Builder

	b.WriteString(rule)
	if len(fields) == 0 {
		b.WriteString("No custom fields\n")
	}
	for _, f := range fields {
		required := ""
		if f.Required {
			required = " (required)"
		}
		fmt.Fprintf(&b, "%s  %s  [%s]%s\n", f.ID, f.Name, f.Type, required)
	}
	b.WriteString(rule)

	_, err := fmt.Fprint(p.writer, b.String())
	return err
}

// Created prints the created task's id and link.
func (p *Printer) Created(t *clickup.Task) error {
	_, err := fmt.Fprintf(p.writer, "Created task %s: %s\n", t.ID, t.URL)
	return err
}

func sender(content *email.Content) string {
	switch {
	case content.Sender == "":
		return content.SenderEmail
	case content.SenderEmail == "":
		return content.Sender
	default:
		return fmt.Sprintf("%s <%s>", content.Sender, content.SenderEmail)
	}
}

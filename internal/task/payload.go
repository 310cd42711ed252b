// Package task builds and validates the task creation payload sent to
// ClickUp from an email and its optional analysis.
package task

import (
	"fmt"
	"unicode/utf8"
)

// MaxNameLength is the longest task name ClickUp accepts, in characters.
const MaxNameLength = 500

// Payload is the body of a create-task request.
type Payload struct {
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	MarkdownDescription string        `json:"markdown_description"`
	CustomFields        []CustomField `json:"custom_fields,omitempty"`
}

// CustomField is one typed custom field assignment. Name is for display
// only and is not sent.
type CustomField struct {
	ID    string `json:"id"`
	Name  string `json:"-"`
	Value any    `json:"value"`
}

// CreationError reports a payload that must not be sent, or a task
// location that could not be resolved.
type CreationError struct {
	Msg string
	Err error
}

func (e *CreationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// Validate checks the payload before any network call. The name must be
// between 1 and MaxNameLength characters; the description is unconstrained.
func Validate(p *Payload) error {
	if p == nil || p.Name == "" {
		return &CreationError{Msg: "task name is required"}
	}
	if n := utf8.RuneCountInString(p.Name); n > MaxNameLength {
		return &CreationError{Msg: fmt.Sprintf("task name too long: %d characters (max %d)", n, MaxNameLength)}
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is a ClickUp custom field type.
type FieldType string

const (
	FieldText     FieldType = "TEXT"
	FieldNumber   FieldType = "NUMBER"
	FieldCheckbox FieldType = "CHECKBOX"
	FieldDate     FieldType = "DATE"
	FieldDropdown FieldType = "DROPDOWN"
)

// Sources a custom field value can be read from.
const (
	SourceSubject         = "subject"
	SourceBody            = "body"
	SourceSender          = "sender"
	SourceSenderEmail     = "sender_email"
	SourceDate            = "date"
	SourceAttachments     = "attachments"
	SourceAttachmentCount = "attachment_count"
	SourceTitle           = "title"
	SourceDescription     = "description"
	SourcePriority        = "priority"
	SourceDueDate         = "due_date"
	SourceKeyPoints       = "key_points"
	SourceConfidence      = "confidence"
)

var knownSources = map[string]bool{
	SourceSubject:         true,
	SourceBody:            true,
	SourceSender:          true,
	SourceSenderEmail:     true,
	SourceDate:            true,
	SourceAttachments:     true,
	SourceAttachmentCount: true,
	SourceTitle:           true,
	SourceDescription:     true,
	SourcePriority:        true,
	SourceDueDate:         true,
	SourceKeyPoints:       true,
	SourceConfidence:      true,
}

// FieldMapping assigns a task custom field from an email or analysis
// attribute, or from a literal Value when Source is empty.
type FieldMapping struct {
	ID     string    `yaml:"id"`
	Name   string    `yaml:"name"`
	Type   FieldType `yaml:"type"`
	Source string    `yaml:"source"`
	Value  string    `yaml:"value"`
}

func (m *FieldMapping) validate() error {
	if m.ID == "" {
		return errors.New("id is required")
	}

	m.Type = FieldType(strings.ToUpper(string(m.Type)))
	switch m.Type {
	case FieldText, FieldNumber, FieldCheckbox, FieldDate, FieldDropdown:
	default:
		return fmt.Errorf("unknown field type %q", m.Type)
	}

	m.Source = strings.ToLower(m.Source)
	switch {
	case m.Source == "" && m.Value == "":
		return errors.New("either source or value is required")
	case m.Source != "" && !knownSources[m.Source]:
		return fmt.Errorf("unknown source %q", m.Source)
	}

	return nil
}

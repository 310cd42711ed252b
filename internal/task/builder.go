package task

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shineum/mailtask/internal/analysis"
	"github.com/shineum/mailtask/internal/config"
	"github.com/shineum/mailtask/internal/email"
)

// maxBodyDescription bounds the description taken from the raw body when
// there is no analysis.
const maxBodyDescription = 500

// Builder turns email content into a Payload.
type Builder struct {
	mappings []config.FieldMapping
}

// NewBuilder creates a Builder that appends the given custom fields to
// every payload.
func NewBuilder(mappings []config.FieldMapping) *Builder {
	return &Builder{mappings: mappings}
}

// Build assembles the payload. With an analysis the task takes its title
// and full description; without one it takes the subject and the start of
// the body. Build does not validate.
func (b *Builder) Build(content *email.Content, a *analysis.Analysis) *Payload {
	p := &Payload{}
	if a != nil {
		p.Name = a.Title
		p.Description = a.Description
	} else {
		p.Name = content.Subject
		p.Description = firstChars(content.Body, maxBodyDescription)
	}
	p.MarkdownDescription = p.Description

	for _, m := range b.mappings {
		raw, ok := sourceValue(m, content, a)
		if !ok {
			slog.Debug("skipping custom field without a value",
				"field_id", m.ID,
				"source", m.Source,
			)
			continue
		}
		p.CustomFields = append(p.CustomFields, CustomField{
			ID:    m.ID,
			Name:  m.Name,
			Value: Coerce(m.Type, raw),
		})
	}

	return p
}

// sourceValue reads the mapped attribute. Analysis attributes are
// unavailable without an analysis, and an absent due date has no value.
func sourceValue(m config.FieldMapping, content *email.Content, a *analysis.Analysis) (any, bool) {
	switch m.Source {
	case "":
		return m.Value, true
	case config.SourceSubject:
		return content.Subject, true
	case config.SourceBody:
		return content.Body, true
	case config.SourceSender:
		return content.Sender, true
	case config.SourceSenderEmail:
		return content.SenderEmail, true
	case config.SourceDate:
		return content.Date, true
	case config.SourceAttachments:
		return strings.Join(content.Attachments, ", "), true
	case config.SourceAttachmentCount:
		return len(content.Attachments), true
	}

	if a == nil {
		return nil, false
	}

	switch m.Source {
	case config.SourceTitle:
		return a.Title, true
	case config.SourceDescription:
		return a.Description, true
	case config.SourcePriority:
		return string(a.Priority), true
	case config.SourceDueDate:
		if a.DueDate == nil {
			return nil, false
		}
		return *a.DueDate, true
	case config.SourceKeyPoints:
		return strings.Join(a.KeyPoints, "; "), true
	case config.SourceConfidence:
		return a.Confidence, true
	default:
		return nil, false
	}
}

// Coerce converts a source value to the representation ClickUp expects for
// the field type. It never fails: unparseable numbers become 0.
func Coerce(t config.FieldType, v any) any {
	switch t {
	case config.FieldNumber:
		return toNumber(v)
	case config.FieldCheckbox:
		return toBool(v)
	case config.FieldDate:
		slog.Debug("date custom field passed through unconverted")
		return v
	default:
		return toString(v)
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(toString(v)), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case float64:
		return x != 0
	case nil:
		return false
	default:
		s := strings.TrimSpace(toString(v))
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != ""
	}
}

// firstChars returns at most n characters of s.
func firstChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package analysis turns email content into a task summary with a
// generative model, falling back to a deterministic heuristic whenever the
// model cannot be used.
package analysis

import "strings"

// Priority is a task priority level.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// DefaultTitle is used when neither the model nor the subject provides one.
const DefaultTitle = "Email Task"

// HeuristicConfidence marks analyses produced without the model.
const HeuristicConfidence = 0.5

// maxKeyPoints caps the key points kept from a model response.
const maxKeyPoints = 5

// Analysis is the structured summary of one email.
type Analysis struct {
	Title       string
	Description string
	Priority    Priority
	// DueDate is an ISO date (YYYY-MM-DD) or nil.
	DueDate    *string
	KeyPoints  []string
	Confidence float64
	// Heuristic is set when the analysis was produced without the model.
	Heuristic bool
}

// ParsePriority maps a model-supplied priority onto the closed set,
// case-insensitively. Unknown values become Normal.
func ParsePriority(s string) Priority {
	s = strings.TrimSpace(s)
	for _, p := range []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent} {
		if strings.EqualFold(string(p), s) {
			return p
		}
	}
	return PriorityNormal
}

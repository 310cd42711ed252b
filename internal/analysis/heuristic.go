package analysis

import (
	"strings"

	"github.com/shineum/mailtask/internal/email"
)

const (
	maxHeuristicTitle       = 100
	maxHeuristicDescription = 200
	heuristicLines          = 3
)

// Heuristic builds an analysis from the subject and the first lines of the
// body without any network access. It is deterministic.
func Heuristic(content *email.Content) Analysis {
	title := DefaultTitle
	if strings.TrimSpace(content.Subject) != "" {
		title = truncate(content.Subject, maxHeuristicTitle)
	}

	lines := make([]string, 0, heuristicLines)
	for _, line := range strings.Split(content.Body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
			if len(lines) == heuristicLines {
				break
			}
		}
	}

	description := strings.Join(lines, " ")
	if runeLen(description) > maxHeuristicDescription {
		description = truncate(description, maxHeuristicDescription-3) + "..."
	}

	return Analysis{
		Title:       title,
		Description: description,
		Priority:    PriorityNormal,
		KeyPoints:   []string{},
		Confidence:  HeuristicConfidence,
		Heuristic:   true,
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

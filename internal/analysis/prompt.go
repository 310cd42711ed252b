package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shineum/mailtask/internal/email"
)

const promptTemplate = `Analyze this email and extract task information.

Email Subject: %s
Email From: %s
Email Date: %s
Email Body:
%s

Please extract:
1. A concise task title (5-10 words)
2. Task description (1-2 sentences summarizing the action needed)
3. Priority level (Low, Normal, High, or Urgent)
4. Due date (if mentioned in the email, format as YYYY-MM-DD, otherwise null)
5. Key action items or points (3-5 bullet points)
6. Your confidence in this extraction, from 0 to 1

Return ONLY valid JSON in this exact format:
{
    "title": "Task title here",
    "description": "Brief description here",
    "priority": "Normal",
    "due_date": "2025-01-01",
    "key_points": ["Point 1", "Point 2", "Point 3"],
    "confidence": 0.85
}
`

// BuildPrompt renders the analysis prompt for an email.
func BuildPrompt(content *email.Content) string {
	from := content.Sender
	switch {
	case from == "":
		from = content.SenderEmail
	case content.SenderEmail != "":
		from = fmt.Sprintf("%s <%s>", content.Sender, content.SenderEmail)
	}
	return fmt.Sprintf(promptTemplate, content.Subject, from, content.Date, content.Body)
}

// response is the JSON object the model is asked to return. Pointer fields
// distinguish missing keys from zero values.
type response struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	DueDate     *string  `json:"due_date"`
	KeyPoints   []string `json:"key_points"`
	Confidence  *float64 `json:"confidence"`
}

// ParseResponse decodes the model output, tolerating a surrounding
// ```json fence. Missing keys take their defaults.
func ParseResponse(text string) (Analysis, error) {
	var r response
	if err := json.Unmarshal([]byte(stripFence(text)), &r); err != nil {
		return Analysis{}, fmt.Errorf("invalid response format: %w", err)
	}

	a := Analysis{
		Title:     DefaultTitle,
		Priority:  PriorityNormal,
		KeyPoints: []string{},
	}
	if r.Title != nil {
		a.Title = *r.Title
	}
	if r.Description != nil {
		a.Description = *r.Description
	}
	if r.Priority != nil {
		a.Priority = ParsePriority(*r.Priority)
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		due := strings.TrimSpace(*r.DueDate)
		a.DueDate = &due
	}
	for _, p := range r.KeyPoints {
		if len(a.KeyPoints) == maxKeyPoints {
			break
		}
		a.KeyPoints = append(a.KeyPoints, p)
	}
	if r.Confidence != nil {
		a.Confidence = min(max(*r.Confidence, 0), 1)
	}

	return a, nil
}

// stripFence removes a leading ```json or ``` marker and the closing ```.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = strings.TrimPrefix(text, "```json")
	case strings.HasPrefix(text, "```"):
		text = strings.TrimPrefix(text, "```")
	default:
		return text
	}
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

package analyzer

import (
	"encoding/json"
	"strings"
)

// Target is one award the model flagged for review.
type Target struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Recipient     string  `json:"recipient"`
	RecipientInfo string  `json:"recipient_info,omitempty"`
}

// TargetList is the parsed analysis result. When the response was not
// valid JSON, Targets is empty and Raw holds the full response text.
type TargetList struct {
	Targets []Target `json:"doge_targets"`
	Raw     string   `json:"-"`
}

// ParseTargets extracts the target list from a model response. Markdown
// code fences around the JSON are stripped first. A response that does
// not parse as JSON is never an error; the text is kept as Raw so the
// caller can still log or save it.
func ParseTargets(text string) *TargetList {
	cleaned := stripFences(text)

	var list TargetList
	if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
		return &TargetList{Raw: text}
	}

	return &list
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (```json).
		trimmed = trimmed[idx+1:]
	}

	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/quaestor/internal/interfaces"
)

// ParseJSONBlock extracts a JSON object from oracle output and unmarshals it
// into target. Models often wrap JSON in markdown fences or surround it with
// prose; both are stripped. Returns ErrMalformedOutput when no parseable
// object is found, so callers can fall back to data-only results.
func ParseJSONBlock(text string, target interface{}) error {
	cleaned := strings.TrimSpace(text)

	// Strip markdown code fences
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	// Trim any prose around the outermost object
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no JSON object in response", interfaces.ErrMalformedOutput)
	}
	cleaned = cleaned[start : end+1]

	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrMalformedOutput, err)
	}

	return nil
}

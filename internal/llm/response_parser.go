package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// factResponse is a single extracted fact as returned by the model.
type factResponse struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// extractJSONArray extracts the first JSON array from a string that may
// contain extra text. Models sometimes wrap output in markdown fences or add
// commentary despite instructions; this recovers the array when possible.
func extractJSONArray(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "[")
	if start == -1 {
		return text // no array found, let the parser fail
	}

	depth := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return text[start:]
}

// ParseFactsResponse parses a fact-extraction response into typed facts.
// Empty content items are dropped; unrecognized categories are coerced to
// misc rather than rejected.
func ParseFactsResponse(response string) ([]types.Fact, error) {
	raw := extractJSONArray(response)

	var items []factResponse
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to parse facts response: %w", err)
	}

	facts := make([]types.Fact, 0, len(items))
	for _, item := range items {
		content := strings.TrimSpace(item.Content)
		if content == "" {
			continue
		}
		facts = append(facts, types.Fact{
			Content:  content,
			Category: types.CoerceCategory(item.Category),
		})
	}

	return facts, nil
}

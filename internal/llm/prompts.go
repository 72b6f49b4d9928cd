package llm

import (
	"fmt"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// FactExtractionPrompt generates a strict JSON-only prompt for extracting
// factual information about the user from a chat message. The model must
// return a JSON array of {content, category} objects, nothing else.
func FactExtractionPrompt(message string) string {
	var cats []string
	for _, c := range types.Categories {
		cats = append(cats, string(c))
	}

	return fmt.Sprintf(`TASK: Extract factual information about the user from their message.
OUTPUT: ONLY a valid JSON array. NO markdown. NO code blocks. NO explanations.

CATEGORIES (ONLY these %d):
%s

REQUIRED JSON STRUCTURE:
Your response MUST start with [ and end with ]
Each item MUST have exactly two fields: content, category
If nothing factual, return []

Example (EXACT FORMAT REQUIRED):
[{"content":"likes Thai food","category":"food"},{"content":"allergic to peanuts","category":"personal"}]

VALIDATION (STRICT):
1. Start with [ - End with ]
2. Each item is an object with: content, category
3. category must be one of the listed values
4. No trailing commas
5. Valid JSON syntax

User message: %s`, len(cats), "- "+strings.Join(cats, "\n- "), message)
}

// SummarizationPrompt generates a prompt that condenses a batch of memory
// texts into a few factual statements, preserving key details such as names,
// preferences, allergies, and places.
func SummarizationPrompt(memoryTexts []string) string {
	var b strings.Builder
	for _, t := range memoryTexts {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}

	return fmt.Sprintf(`Summarize these user facts into 3-5 concise factual statements.
Preserve key details (names, preferences, allergies, places).
Output only the summary, no preamble.

Facts:
%s`, b.String())
}

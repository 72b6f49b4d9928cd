package llm

import (
	"testing"

	"github.com/scrypster/recall/pkg/types"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON array",
			input: `[{"content":"likes pizza","category":"food"}]`,
			want:  `[{"content":"likes pizza","category":"food"}]`,
		},
		{
			name:  "array with markdown code block",
			input: "```json\n[{\"content\":\"likes pizza\",\"category\":\"food\"}]\n```",
			want:  `[{"content":"likes pizza","category":"food"}]`,
		},
		{
			name:  "array with surrounding text",
			input: "Here are the facts:\n[{\"content\":\"x\",\"category\":\"misc\"}]\nDone.",
			want:  `[{"content":"x","category":"misc"}]`,
		},
		{
			name:  "brackets inside strings",
			input: `[{"content":"uses [vim] daily","category":"misc"}]`,
			want:  `[{"content":"uses [vim] daily","category":"misc"}]`,
		},
		{
			name:  "empty array",
			input: "[]",
			want:  "[]",
		},
		{
			name:  "no array present",
			input: "nothing factual here",
			want:  "nothing factual here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONArray(tt.input); got != tt.want {
				t.Errorf("extractJSONArray() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFactsResponse(t *testing.T) {
	facts, err := ParseFactsResponse(`[
		{"content": "likes Thai food", "category": "food"},
		{"content": "allergic to peanuts", "category": "personal"},
		{"content": "collects stamps", "category": "hobbies"},
		{"content": "   ", "category": "misc"}
	]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(facts) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(facts))
	}
	if facts[0].Category != types.CategoryFood {
		t.Errorf("expected food category, got %q", facts[0].Category)
	}
	// Unknown category coerced to misc, never rejected.
	if facts[2].Category != types.CategoryMisc {
		t.Errorf("expected coerced misc category, got %q", facts[2].Category)
	}
}

func TestParseFactsResponseEmpty(t *testing.T) {
	facts, err := ParseFactsResponse("[]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("expected no facts, got %d", len(facts))
	}
}

func TestParseFactsResponseInvalid(t *testing.T) {
	if _, err := ParseFactsResponse("I could not find any facts."); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/scrypster/recall/pkg/types"
)

func TestExtractWithRules(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		content  string
		category types.Category
	}{
		{"food preference", "I like Thai food", "thai food", types.CategoryFood},
		{"allergy", "I'm allergic to peanuts.", "peanuts", types.CategoryPersonal},
		{"favorite dish", "My favorite dish is ramen!", "ramen", types.CategoryFood},
		{"diet", "I am vegetarian", "vegetarian", types.CategoryFood},
		{"trip", "I'm going to Tokyo next month", "tokyo next month", types.CategoryTravel},
		{"residence", "I live in Lisbon, near the coast", "lisbon", types.CategoryPersonal},
		{"past trip", "I visited Morocco last year.", "morocco last year", types.CategoryTravel},
		{"job", "I work as a nurse.", "a nurse", types.CategoryPersonal},
		{"name", "My name is Sam", "sam", types.CategoryPersonal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := ExtractWithRules(tt.text)
			if len(facts) == 0 {
				t.Fatalf("no facts extracted from %q", tt.text)
			}
			if facts[0].Content != tt.content {
				t.Errorf("content = %q, want %q", facts[0].Content, tt.content)
			}
			if facts[0].Category != tt.category {
				t.Errorf("category = %q, want %q", facts[0].Category, tt.category)
			}
		})
	}
}

func TestExtractWithRulesDeduplicates(t *testing.T) {
	// Both the food pattern and the generic like pattern match the same
	// content; only the first (food) survives.
	facts := ExtractWithRules("I like sushi")
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d: %+v", len(facts), facts)
	}
	if facts[0].Category != types.CategoryFood {
		t.Errorf("expected food category, got %q", facts[0].Category)
	}
}

func TestExtractWithRulesFallback(t *testing.T) {
	// No pattern matches, but the statement reads factual.
	facts := ExtractWithRules("My laptop is a ThinkPad. It runs Linux.")
	if len(facts) != 1 {
		t.Fatalf("expected 1 misc fact, got %d: %+v", len(facts), facts)
	}
	if facts[0].Category != types.CategoryMisc {
		t.Errorf("expected misc category, got %q", facts[0].Category)
	}
	if facts[0].Content != "My laptop is a ThinkPad" {
		t.Errorf("expected first sentence, got %q", facts[0].Content)
	}
}

func TestExtractWithRulesIgnoresQuestions(t *testing.T) {
	for _, text := range []string{
		"What's the weather like?",
		"How do I cook rice?",
		"Where is the station?",
	} {
		if facts := ExtractWithRules(text); len(facts) != 0 {
			t.Errorf("expected no facts from %q, got %+v", text, facts)
		}
	}
}

type fakeProvider struct {
	facts []types.Fact
	err   error
}

func (f *fakeProvider) Generate(context.Context, string) (string, error) { return "", nil }
func (f *fakeProvider) ExtractFacts(context.Context, string) ([]types.Fact, error) {
	return f.facts, f.err
}
func (f *fakeProvider) Summarize(context.Context, []string) (string, error) { return "", nil }
func (f *fakeProvider) Model() string                                       { return "fake" }

func TestModelExtractorUsesProvider(t *testing.T) {
	want := []types.Fact{{Content: "plays chess", Category: types.CategoryMisc}}
	e := NewModelExtractor(&fakeProvider{facts: want})

	facts := e.Extract(context.Background(), "I play chess every weekend")
	if len(facts) != 1 || facts[0].Content != "plays chess" {
		t.Errorf("unexpected facts: %+v", facts)
	}
}

func TestModelExtractorFallsBackOnError(t *testing.T) {
	e := NewModelExtractor(&fakeProvider{err: errors.New("model unavailable")})

	facts := e.Extract(context.Background(), "I like Thai food")
	if len(facts) != 1 || facts[0].Category != types.CategoryFood {
		t.Errorf("expected rule fallback, got %+v", facts)
	}
}

func TestModelExtractorFallsBackOnEmptyResult(t *testing.T) {
	e := NewModelExtractor(&fakeProvider{})

	facts := e.Extract(context.Background(), "I'm allergic to shellfish")
	if len(facts) != 1 || facts[0].Content != "shellfish" {
		t.Errorf("expected rule fallback, got %+v", facts)
	}
}

func TestNewModelExtractorNilProvider(t *testing.T) {
	e := NewModelExtractor(nil)
	if _, ok := e.(RuleExtractor); !ok {
		t.Errorf("expected RuleExtractor for nil provider, got %T", e)
	}
}

package extract

import (
	"context"
	"log"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/pkg/types"
)

// Extractor extracts facts about the user from a message.
type Extractor interface {
	Extract(ctx context.Context, text string) []types.Fact
}

// RuleExtractor applies the local patterns only. It never fails and needs
// no network access.
type RuleExtractor struct{}

func (RuleExtractor) Extract(_ context.Context, text string) []types.Fact {
	return ExtractWithRules(text)
}

// ModelExtractor asks a language model to extract facts and falls back to
// the local rules when the model fails or returns nothing.
type ModelExtractor struct {
	provider llm.Provider
}

// NewModelExtractor creates an extractor backed by the given provider.
// A nil provider yields a rule-only extractor.
func NewModelExtractor(provider llm.Provider) Extractor {
	if provider == nil {
		return RuleExtractor{}
	}
	return &ModelExtractor{provider: provider}
}

func (e *ModelExtractor) Extract(ctx context.Context, text string) []types.Fact {
	facts, err := e.provider.ExtractFacts(ctx, text)
	if err != nil {
		log.Printf("extract: model extraction failed, using rules: %v", err)
		return ExtractWithRules(text)
	}
	if len(facts) == 0 {
		return ExtractWithRules(text)
	}
	return facts
}

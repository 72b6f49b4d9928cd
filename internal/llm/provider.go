package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// client implements Provider on top of any TextGenerator.
// Prompt construction and response parsing are shared across providers; only
// the transport differs.
type client struct {
	generator TextGenerator
}

// NewProviderFromGenerator wraps an existing TextGenerator as a Provider.
// Useful in tests where the generator is a fake.
func NewProviderFromGenerator(generator TextGenerator) Provider {
	return &client{generator: generator}
}

// Generate produces a free-form completion for the given prompt.
func (c *client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.generator.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ExtractFacts asks the model for (content, category) facts about the user.
func (c *client) ExtractFacts(ctx context.Context, text string) ([]types.Fact, error) {
	response, err := c.generator.Complete(ctx, FactExtractionPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("fact extraction failed: %w", err)
	}
	return ParseFactsResponse(response)
}

// Summarize condenses a batch of memory texts into a short factual summary.
func (c *client) Summarize(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", fmt.Errorf("nothing to summarize")
	}

	summary, err := c.generator.Complete(ctx, SummarizationPrompt(texts))
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("summarizer returned empty text")
	}
	return summary, nil
}

// Model returns the underlying model name.
func (c *client) Model() string {
	return c.generator.GetModel()
}

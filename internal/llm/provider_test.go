package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeGenerator returns canned completions keyed by prompt substring.
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeGenerator) GetModel() string { return "fake-model" }

func TestProviderExtractFacts(t *testing.T) {
	gen := &fakeGenerator{response: `[{"content":"going to Tokyo","category":"travel"}]`}
	p := NewProviderFromGenerator(gen)

	facts, err := p.ExtractFacts(context.Background(), "I'm going to Tokyo next month")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts) != 1 || facts[0].Content != "going to Tokyo" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "going to Tokyo next month") {
		t.Error("expected extraction prompt to include the user message")
	}
}

func TestProviderExtractFactsPropagatesFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	p := NewProviderFromGenerator(gen)

	if _, err := p.ExtractFacts(context.Background(), "hello"); err == nil {
		t.Error("expected error when generator fails")
	}
}

func TestProviderSummarize(t *testing.T) {
	gen := &fakeGenerator{response: "  Lives in Paris; allergic to peanuts.  "}
	p := NewProviderFromGenerator(gen)

	summary, err := p.Summarize(context.Background(), []string{"lives in Paris", "allergic to peanuts"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "Lives in Paris; allergic to peanuts." {
		t.Errorf("unexpected summary: %q", summary)
	}
	if !strings.Contains(gen.prompts[0], "- lives in Paris") {
		t.Error("expected summarization prompt to list the facts")
	}
}

func TestProviderSummarizeEmptyBatch(t *testing.T) {
	p := NewProviderFromGenerator(&fakeGenerator{response: "anything"})
	if _, err := p.Summarize(context.Background(), nil); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestProviderSummarizeEmptyResponse(t *testing.T) {
	p := NewProviderFromGenerator(&fakeGenerator{response: "   "})
	if _, err := p.Summarize(context.Background(), []string{"a fact"}); err == nil {
		t.Error("expected error for empty summarizer output")
	}
}

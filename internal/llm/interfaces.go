// Package llm provides the LLM collaborator capabilities consumed by the
// memory core: text generation, fact extraction, and summarization. It
// includes strict JSON-only prompt templates, a fence-tolerant response
// parser, and circuit-breaker-wrapped clients for Ollama, OpenAI, and
// Anthropic models.
package llm

import (
	"context"

	"github.com/scrypster/recall/pkg/types"
)

// TextGenerator is the interface for LLM text completion.
// All prompts use single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
// Returns float32 slice; the embedding gateway converts to float64 for storage.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// Provider is the single capability interface the memory core depends on.
// Provider-specific behaviour (endpoints, auth, retry policy) lives entirely
// inside the implementations; the core never branches on provider identity.
//
// Every method may fail. Callers degrade rather than abort: a failed Generate
// produces a fallback reply, a failed ExtractFacts falls back to rule-based
// extraction, and a failed Summarize cleanly aborts a compaction attempt.
type Provider interface {
	// Generate produces a free-form completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ExtractFacts pulls (content, category) facts about the user out of a
	// chat message.
	ExtractFacts(ctx context.Context, text string) ([]types.Fact, error)

	// Summarize condenses a batch of memory texts into a few factual
	// statements, preserving key details.
	Summarize(ctx context.Context, texts []string) (string, error)

	// Model returns the underlying model name, for health reporting.
	Model() string
}

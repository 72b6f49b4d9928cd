package llm

import "fmt"

// Config describes which provider to use and how to reach it.
// Provider-specific implementations are selected here, at configuration time;
// the memory core only ever sees the Provider interface.
type Config struct {
	Provider       string // "ollama", "openai", or "anthropic"
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string
}

// NewProvider creates the Provider for the configured backend.
func NewProvider(cfg Config) (Provider, error) {
	generator, err := newTextGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return NewProviderFromGenerator(generator), nil
}

func newTextGenerator(cfg Config) (TextGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the appropriate EmbeddingGenerator.
// Returns (nil, nil) for providers without an embeddings endpoint (Anthropic);
// the embedding gateway then degrades to unembedded records.
func NewEmbeddingGenerator(cfg Config) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{APIKey: cfg.APIKey, Model: cfg.EmbeddingModel, BaseURL: cfg.BaseURL}), nil
	case "ollama", "":
		model := cfg.EmbeddingModel
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: model}), nil
	default:
		return nil, nil
	}
}

package embedding

import (
	"context"
	"errors"

	"github.com/scrypster/recall/internal/llm"
)

// ErrNoEncoder is returned by Embed when no encoder client is configured.
// Callers treat encoding failure as "store without embedding", never as fatal.
var ErrNoEncoder = errors.New("no embedding client configured")

// DefaultRefineAlpha is the default step size for centroid refinement.
const DefaultRefineAlpha = 0.1

// Gateway wraps an external encoder behind the llm.EmbeddingGenerator
// interface and converts its float32 output to the float64 vectors used
// throughout the store and ranking code.
//
// The gateway is stateless; it is consulted by value and holds no
// back-references to stored records.
type Gateway struct {
	generator llm.EmbeddingGenerator
}

// NewGateway creates a gateway around the given encoder client.
// A nil generator is allowed: Embed then always fails with ErrNoEncoder and
// the rest of the system degrades to unranked, embedding-less operation.
func NewGateway(generator llm.EmbeddingGenerator) *Gateway {
	return &Gateway{generator: generator}
}

// Embed encodes text into the latent embedding space.
// Deterministic for a fixed backend and model version.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float64, error) {
	if g.generator == nil {
		return nil, ErrNoEncoder
	}

	raw, err := g.generator.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vec, nil
}

// Model returns the encoder model name, or "" when no encoder is configured.
func (g *Gateway) Model() string {
	if g.generator == nil {
		return ""
	}
	return g.generator.GetModel()
}

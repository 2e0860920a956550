// Package embed defines the embedding provider boundary: text in, a
// fixed-length float32 vector out. The provider is external and may fail;
// all failures surface as ErrProvider so callers can branch to the lexical
// fallback with a single errors.Is check.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// ErrProvider indicates the embedding provider failed (transport or
// service error, or a malformed response with no vector).
var ErrProvider = errors.New("embedding provider failure")

// Provider maps text to a dense vector. The vector length D is fixed by
// the provider for its lifetime; every call returns exactly D components.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenkitProvider adapts a Genkit ai.Embedder to the Provider interface.
type GenkitProvider struct {
	embedder  ai.Embedder
	dimension int
}

// NewGenkitProvider wraps a Genkit embedder. When dimension is positive it
// is requested as the output dimensionality, pinning D for the lifetime of
// the store (Gemini embedding models support Matryoshka truncation).
func NewGenkitProvider(embedder ai.Embedder, dimension int) *GenkitProvider {
	return &GenkitProvider{embedder: embedder, dimension: dimension}
}

// Embed generates the embedding for a single text.
func (p *GenkitProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	}
	if p.dimension > 0 {
		req.Options = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(p.dimension)),
		}
	}

	resp, err := p.embedder.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: response carried no embedding", ErrProvider)
	}

	return resp.Embeddings[0].Embedding, nil
}

// Func adapts a plain function to the Provider interface. Tests use this
// to stub the provider without a Genkit registry.
type Func func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Package embedding turns note text into fixed-length unit vectors.
package embedding

import "context"

// DefaultDimensions is the vector length produced by the hash embedder.
const DefaultDimensions = 128

// Embedder produces vector embeddings for text. Implementations must be deterministic,
// return exactly Dimensions() components, and return unit-norm vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimensions() int
	Close() error
}

func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

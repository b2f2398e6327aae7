package embedding

import (
	"context"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/hyperjump/kioku/internal/vector"
)

// HashEmbedder is a deterministic placeholder for a real embedding model. The vector is
// derived from a 32-bit string hash, so only identical texts are guaranteed to be close.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hash embedder producing vectors of the given dimension
// (DefaultDimensions when dimensions <= 0).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns sin(i * hash * 0.001) * 0.5 + 0.5 for each dimension i, normalized to unit length.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	h := float64(StringHash32(text))
	emb := make([]float64, e.dimensions)
	for i := range emb {
		emb[i] = math.Sin(float64(i)*h*0.001)*0.5 + 0.5
	}
	if err := vector.Normalize(emb); err != nil {
		return nil, fmt.Errorf("embed %d chars: %w", len(text), err)
	}
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// StringHash32 is the ×31 rolling hash over UTF-16 code units with 32-bit signed
// wraparound (the Java String.hashCode recurrence).
func StringHash32(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}
	return h
}

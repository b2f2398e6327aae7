// Package vector provides the note embedding index and cosine similarity search.
package vector

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidVector is returned for vectors that cannot take part in similarity math:
	// zero magnitude, non-finite components, or the wrong dimension.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrDimensionMismatch is returned when two vectors (or a vector and the index) differ in length.
	// It wraps ErrInvalidVector.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrInvalidVector)
)

// Metadata is a snapshot of the source note taken at index time.
// It is not kept in sync with the note; it is refreshed when the note is re-indexed.
type Metadata struct {
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmbeddingVector is one indexed note. ID equals the note ID.
type EmbeddingVector struct {
	ID       string
	Vector   []float64
	Metadata Metadata
}

// Hit is a single similarity search result.
type Hit struct {
	ID       string
	Score    float64 // cosine similarity in [-1, 1]
	Metadata Metadata
}

// Index stores one vector per note and answers nearest-neighbour queries.
type Index interface {
	// Upsert inserts v, replacing any entry with the same ID.
	Upsert(ctx context.Context, v *EmbeddingVector) error
	// Remove deletes the entry with id; absent ids are not an error.
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	// Replace atomically swaps the contents of the index for vs.
	Replace(ctx context.Context, vs []*EmbeddingVector) error
	Search(ctx context.Context, query []float64, limit int) ([]*Hit, error)
	Get(id string) (*EmbeddingVector, bool)
	IDs() []string
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

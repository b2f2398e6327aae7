package vector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, vec ...float64) *EmbeddingVector {
	return &EmbeddingVector{ID: id, Vector: vec, Metadata: Metadata{Title: "title " + id}}
}

func TestMemoryIndex_UpsertSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	require.NoError(t, err)
	defer idx.Close()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, entry("a", 1, 0, 0)))
	require.NoError(t, idx.Upsert(ctx, entry("b", 0.9, 0.1, 0)))
	require.NoError(t, idx.Upsert(ctx, entry("c", 0, 1, 0)))
	assert.Equal(t, 3, idx.Size())

	hits, err := idx.Search(ctx, []float64{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-12)
	assert.Equal(t, "title a", hits[0].Metadata.Title)
}

func TestMemoryIndex_UpsertReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, idx.Upsert(ctx, entry("x", 1, 0)))
	require.NoError(t, idx.Upsert(ctx, entry("7", 1, 0)))
	require.NoError(t, idx.Upsert(ctx, &EmbeddingVector{
		ID: "7", Vector: []float64{0, 1}, Metadata: Metadata{Title: "second", UpdatedAt: first},
	}))

	assert.Equal(t, 2, idx.Size())
	assert.Equal(t, []string{"x", "7"}, idx.IDs(), "replacement keeps insertion position")
	got, ok := idx.Get("7")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1}, got.Vector)
	assert.Equal(t, "second", got.Metadata.Title)
	assert.Equal(t, first, got.Metadata.UpdatedAt)
}

func TestMemoryIndex_UpsertCopiesVector(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	v := []float64{1, 0}
	require.NoError(t, idx.Upsert(context.Background(), &EmbeddingVector{ID: "a", Vector: v}))
	v[0] = 0
	got, _ := idx.Get("a")
	assert.Equal(t, []float64{1, 0}, got.Vector)
}

func TestMemoryIndex_UpsertRejectsInvalid(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	err := idx.Upsert(ctx, entry("a", 1, 0, 0))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.ErrorIs(t, err, ErrInvalidVector)

	assert.ErrorIs(t, idx.Upsert(ctx, entry("z", 0, 0)), ErrInvalidVector)
	assert.ErrorIs(t, idx.Upsert(ctx, entry("", 1, 0)), ErrInvalidVector)
	assert.Equal(t, 0, idx.Size())
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, entry("x", 1, 0)))
	require.NoError(t, idx.Upsert(ctx, entry("y", 0, 1)))
	require.NoError(t, idx.Upsert(ctx, entry("z", 1, 1)))

	require.NoError(t, idx.Remove(ctx, "x"))
	assert.Equal(t, []string{"y", "z"}, idx.IDs())
	_, ok := idx.Get("x")
	assert.False(t, ok)

	require.NoError(t, idx.Remove(ctx, "missing"), "removing an absent id is a no-op")
	assert.Equal(t, 2, idx.Size())

	// positions stay consistent after removal
	require.NoError(t, idx.Upsert(ctx, entry("z", 0, 1)))
	got, ok := idx.Get("z")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1}, got.Vector)
	assert.Equal(t, 2, idx.Size())
}

func TestMemoryIndex_Clear(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, entry("x", 1, 0)))
	require.NoError(t, idx.Clear(ctx))
	assert.Equal(t, 0, idx.Size())
	hits, err := idx.Search(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryIndex_Replace(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, entry("old", 1, 0)))

	require.NoError(t, idx.Replace(ctx, []*EmbeddingVector{
		entry("b", 0, 1),
		entry("a", 1, 0),
		entry("b", 1, 1),
	}))
	assert.Equal(t, []string{"b", "a"}, idx.IDs(), "repeated id keeps its first position")
	got, ok := idx.Get("b")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1}, got.Vector)
	_, ok = idx.Get("old")
	assert.False(t, ok)
}

func TestMemoryIndex_ReplaceInvalidKeepsContents(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, entry("keep", 1, 0)))

	err := idx.Replace(ctx, []*EmbeddingVector{entry("a", 1, 0), entry("bad", 1, 0, 0)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	err = idx.Replace(ctx, []*EmbeddingVector{entry("zero", 0, 0)})
	assert.ErrorIs(t, err, ErrInvalidVector)

	assert.Equal(t, []string{"keep"}, idx.IDs())
}

func TestMemoryIndex_ReplaceCopiesInput(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	in := entry("a", 1, 0)
	require.NoError(t, idx.Replace(context.Background(), []*EmbeddingVector{in}))
	in.Vector[0] = 0
	got, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0}, got.Vector)
}

func TestMemoryIndex_SearchEmpty(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	hits, err := idx.Search(context.Background(), []float64{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestMemoryIndex_SearchDimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, entry("a", 1, 0, 0)))
	_, err := idx.Search(ctx, []float64{1, 0}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryIndex_SearchStableTies(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, idx.Upsert(ctx, entry(id, 1, 1)))
	}
	for i := 0; i < 5; i++ {
		hits, err := idx.Search(ctx, []float64{1, 0}, 3)
		require.NoError(t, err)
		ids := []string{hits[0].ID, hits[1].ID, hits[2].ID}
		assert.Equal(t, []string{"first", "second", "third"}, ids)
	}
}

func TestMemoryIndex_SearchLimit(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, entry("a", 1, 0)))
	require.NoError(t, idx.Upsert(ctx, entry("b", 0, 1)))

	hits, err := idx.Search(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Search(ctx, []float64{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNewMemoryIndex_InvalidDimensions(t *testing.T) {
	_, err := NewMemoryIndex(0)
	assert.Error(t, err)
}

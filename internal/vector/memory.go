package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// IndexTypeMemory identifies the in-memory brute-force index.
const IndexTypeMemory = "memory"

// MemoryIndex is an in-memory vector index with brute-force cosine search.
// Entries keep insertion order; replacing an entry keeps its original position.
type MemoryIndex struct {
	dimensions int
	entries    []*EmbeddingVector
	positions  map[string]int
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory index for vectors of the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		entries:    make([]*EmbeddingVector, 0),
		positions:  make(map[string]int),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return IndexTypeMemory
}

// Dimensions returns the vector dimension accepted by the index.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// ValidateEntry checks that v has an ID and a finite, non-zero vector of the given dimension.
func ValidateEntry(v *EmbeddingVector, dimensions int) error {
	if v == nil || v.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidVector)
	}
	if len(v.Vector) != dimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(v.Vector), dimensions)
	}
	if err := CheckFinite(v.Vector); err != nil {
		return err
	}
	if L2Norm(v.Vector) == 0 {
		return fmt.Errorf("%w: zero magnitude", ErrInvalidVector)
	}
	return nil
}

func copyEntry(v *EmbeddingVector) *EmbeddingVector {
	return &EmbeddingVector{
		ID:       v.ID,
		Vector:   append([]float64(nil), v.Vector...),
		Metadata: v.Metadata,
	}
}

// Upsert stores a copy of v, replacing any existing entry with the same ID.
func (m *MemoryIndex) Upsert(ctx context.Context, v *EmbeddingVector) error {
	if err := ValidateEntry(v, m.dimensions); err != nil {
		return err
	}
	entry := copyEntry(v)
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.positions[v.ID]; ok {
		m.entries[pos] = entry
		return nil
	}
	m.positions[v.ID] = len(m.entries)
	m.entries = append(m.entries, entry)
	return nil
}

// Replace swaps the whole contents of the index for vs in one step. Readers see either
// the old contents or the new ones. Entries are validated first; if any is invalid
// the index is left unchanged. A repeated ID keeps its first position and last value.
func (m *MemoryIndex) Replace(ctx context.Context, vs []*EmbeddingVector) error {
	entries := make([]*EmbeddingVector, 0, len(vs))
	positions := make(map[string]int, len(vs))
	for _, v := range vs {
		if err := ValidateEntry(v, m.dimensions); err != nil {
			return err
		}
		if pos, ok := positions[v.ID]; ok {
			entries[pos] = copyEntry(v)
			continue
		}
		positions[v.ID] = len(entries)
		entries = append(entries, copyEntry(v))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.positions = positions
	return nil
}

// Remove deletes the entry with id by rebuilding the entry slice.
func (m *MemoryIndex) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[id]; !ok {
		return nil
	}
	kept := make([]*EmbeddingVector, 0, len(m.entries)-1)
	for _, e := range m.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	m.positions = make(map[string]int, len(kept))
	for i, e := range kept {
		m.positions[e.ID] = i
	}
	return nil
}

// Clear removes every entry.
func (m *MemoryIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]*EmbeddingVector, 0)
	m.positions = make(map[string]int)
	return nil
}

// Search returns up to limit hits ordered by descending cosine similarity.
// Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float64, limit int) ([]*Hit, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query %w: got %d, expected %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	if err := CheckFinite(query); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || len(m.entries) == 0 {
		return []*Hit{}, nil
	}
	hits := make([]*Hit, len(m.entries))
	for i, e := range m.entries {
		score, err := CosineSimilarity(query, e.Vector)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", e.ID, err)
		}
		hits[i] = &Hit{ID: e.ID, Score: score, Metadata: e.Metadata}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit], nil
}

// Get returns a copy of the entry with id.
func (m *MemoryIndex) Get(id string) (*EmbeddingVector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[id]
	if !ok {
		return nil, false
	}
	e := m.entries[pos]
	return &EmbeddingVector{ID: e.ID, Vector: append([]float64(nil), e.Vector...), Metadata: e.Metadata}, true
}

// IDs returns the indexed IDs in insertion order.
func (m *MemoryIndex) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.entries))
	for i, e := range m.entries {
		ids[i] = e.ID
	}
	return ids
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

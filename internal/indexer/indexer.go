// Package indexer keeps the note embedding index in step with note mutations.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// ErrNilNote is returned by IndexNote for a nil note or one without an ID.
var ErrNilNote = errors.New("note has no id")

// Indexer embeds notes and upserts them into a vector index.
type Indexer struct {
	embedder embedding.Embedder
	index    vector.Index
	logger   *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger used for per-note failures and debug events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer writing into index.
func NewIndexer(embedder embedding.Embedder, index vector.Index, opts ...IndexerOption) *Indexer {
	idx := &Indexer{embedder: embedder, index: index}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// ReindexReport summarizes a full rebuild.
type ReindexReport struct {
	Total   int `json:"total"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// IndexNote embeds the note's title and content and upserts it with a metadata snapshot.
// Call it after every create and update.
func (idx *Indexer) IndexNote(ctx context.Context, note *models.Note) error {
	entry, err := idx.embedNote(ctx, note)
	if err != nil {
		return err
	}
	if err := idx.index.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to index note %s: %w", note.ID, err)
	}
	idx.logger.Debug("note indexed", zap.String("id", note.ID))
	return nil
}

func (idx *Indexer) embedNote(ctx context.Context, note *models.Note) (*vector.EmbeddingVector, error) {
	if note == nil || note.ID == "" {
		return nil, ErrNilNote
	}
	vec, err := idx.embedder.Embed(ctx, note.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("failed to embed note %s: %w", note.ID, err)
	}
	return &vector.EmbeddingVector{
		ID:     note.ID,
		Vector: vec,
		Metadata: vector.Metadata{
			Title:     note.Title,
			Content:   note.Content,
			CreatedAt: note.CreatedAt,
			UpdatedAt: note.UpdatedAt,
		},
	}, nil
}

// DeleteNoteEmbedding removes the note's entry. Deleting an unknown id is a no-op.
func (idx *Indexer) DeleteNoteEmbedding(ctx context.Context, id string) {
	if err := idx.index.Remove(ctx, id); err != nil {
		idx.logger.Warn("failed to remove note embedding", zap.String("id", id), zap.Error(err))
		return
	}
	idx.logger.Debug("note embedding removed", zap.String("id", id))
}

// ReindexAllNotes embeds every note once, in order, and then swaps the new set into the
// index in a single step, so searches during the rebuild see the previous contents. A note
// that fails is logged and counted; the rest of the batch still runs. If ctx is cancelled
// the staged embeddings are discarded, the index is left as it was, and ctx.Err() is
// returned.
func (idx *Indexer) ReindexAllNotes(ctx context.Context, notes []*models.Note) (*ReindexReport, error) {
	report := &ReindexReport{Total: len(notes)}
	staged := make([]*vector.EmbeddingVector, 0, len(notes))
	dims := idx.index.Dimensions()
	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			idx.logger.Warn("reindex cancelled, index unchanged",
				zap.Int("staged", len(staged)), zap.Int("total", report.Total))
			report.Indexed = 0
			return report, err
		}
		entry, err := idx.embedNote(ctx, note)
		if err == nil {
			if verr := vector.ValidateEntry(entry, dims); verr != nil {
				err = fmt.Errorf("failed to index note %s: %w", note.ID, verr)
			}
		}
		if err != nil {
			report.Failed++
			id := ""
			if note != nil {
				id = note.ID
			}
			idx.logger.Error("failed to reindex note", zap.String("id", id), zap.Error(err))
			continue
		}
		staged = append(staged, entry)
		report.Indexed++
	}
	if err := idx.index.Replace(ctx, staged); err != nil {
		report.Indexed = 0
		return report, fmt.Errorf("failed to swap index: %w", err)
	}
	idx.logger.Info("reindex complete",
		zap.Int("total", report.Total),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// Size returns the number of indexed notes.
func (idx *Indexer) Size() int {
	return idx.index.Size()
}

// Has reports whether the note has an embedding.
func (idx *Indexer) Has(id string) bool {
	_, ok := idx.index.Get(id)
	return ok
}

// Package notes owns note mutations and keeps the embedding and full-text indices in
// step with storage.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/keyword"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

// ErrInvalidNote is returned when a note fails validation.
var ErrInvalidNote = errors.New("invalid note")

// filterTitleBoost ranks title matches above content matches in filtered lists.
const filterTitleBoost = 3.0

// Service creates, updates and deletes notes. Storage is written first; index failures
// are logged and never fail the mutation.
type Service struct {
	store      storage.Storage
	indexer    *indexer.Indexer
	fulltext   keyword.KeywordIndex
	extensions []string
	mu         sync.Mutex
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithExtensions restricts which files ImportFile accepts (e.g. ".md", ".txt").
// Empty means any file.
func WithExtensions(exts []string) Option {
	return func(s *Service) { s.extensions = exts }
}

// NewService creates a notes service.
func NewService(store storage.Storage, idx *indexer.Indexer, fulltext keyword.KeywordIndex, opts ...Option) *Service {
	s := &Service{store: store, indexer: idx, fulltext: fulltext}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Create stores a new note with a generated ID and indexes it.
func (s *Service) Create(ctx context.Context, in *models.NoteInput) (*models.Note, error) {
	if in == nil || in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidNote)
	}
	note := &models.Note{ID: uuid.NewString(), Title: *in.Title}
	if in.Content != nil {
		note.Content = *in.Content
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	s.index(ctx, note)
	return note, nil
}

// Update applies the non-nil fields of in to the note and re-indexes it.
func (s *Service) Update(ctx context.Context, id string, in *models.NoteInput) (*models.Note, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidNote)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be blank", ErrInvalidNote)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if err := s.store.UpdateNote(ctx, note); err != nil {
		return nil, err
	}
	s.index(ctx, note)
	return note, nil
}

// Delete removes the note from storage and both indices.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, id)
}

func (s *Service) deleteLocked(ctx context.Context, id string) error {
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.indexer.DeleteNoteEmbedding(ctx, id)
	if err := s.fulltext.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to remove note from full-text index", zap.String("id", id), zap.Error(err))
	}
	return nil
}

// Get returns a note by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.store.GetNote(ctx, id)
}

// List returns a page of notes and the total number matching. With an empty filter
// notes come newest first; otherwise they are ranked by the full-text index, matching
// whole words and word prefixes in title or content.
func (s *Service) List(ctx context.Context, filter string, offset, limit int) ([]*models.Note, int, error) {
	if offset < 0 {
		offset = 0
	}
	filter = strings.TrimSpace(filter)
	if filter == "" {
		total, err := s.store.CountNotes(ctx)
		if err != nil {
			return nil, 0, err
		}
		notes, err := s.store.ListNotes(ctx, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		return notes, int(total), nil
	}

	count, err := s.fulltext.DocCount()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count full-text documents: %w", err)
	}
	if count == 0 {
		return []*models.Note{}, 0, nil
	}
	hits, err := s.fulltext.Search(ctx, filter, int(count), &keyword.SearchOptions{
		TitleBoost: filterTitleBoost,
		Prefix:     true,
	})
	if err != nil {
		return nil, 0, err
	}
	total := len(hits)
	if offset >= len(hits) {
		return []*models.Note{}, total, nil
	}
	hits = hits[offset:]
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	notes := make([]*models.Note, 0, len(hits))
	for _, h := range hits {
		note, err := s.store.GetNote(ctx, h.ID)
		if errors.Is(err, storage.ErrNoteNotFound) {
			s.logger.Debug("full-text hit for missing note", zap.String("id", h.ID))
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, note)
	}
	return notes, total, nil
}

// Count returns the number of stored notes.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountNotes(ctx)
}

// Rebuild re-creates the embedding index and the full-text index from storage.
func (s *Service) Rebuild(ctx context.Context) (*indexer.ReindexReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes, err := s.store.AllNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	report, err := s.indexer.ReindexAllNotes(ctx, notes)
	if err != nil {
		return report, err
	}
	if err := s.fulltext.Reset(ctx); err != nil {
		return report, fmt.Errorf("failed to reset full-text index: %w", err)
	}
	for _, note := range notes {
		if err := s.fulltext.Index(ctx, note); err != nil {
			s.logger.Warn("failed to add note to full-text index", zap.String("id", note.ID), zap.Error(err))
		}
	}
	return report, nil
}

// index updates both indices for note, logging failures.
func (s *Service) index(ctx context.Context, note *models.Note) {
	if err := s.indexer.IndexNote(ctx, note); err != nil {
		s.logger.Error("failed to index note embedding", zap.String("id", note.ID), zap.Error(err))
	}
	if err := s.fulltext.Index(ctx, note); err != nil {
		s.logger.Error("failed to index note text", zap.String("id", note.ID), zap.Error(err))
	}
}

// Package storage defines the persistence interface for notes.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kioku/internal/models"
)

// ErrNoteNotFound is returned when no note has the requested ID.
var ErrNoteNotFound = errors.New("note not found")

// Storage is the source of truth for notes. The embedding index and full-text index
// are rebuilt from it.
type Storage interface {
	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id string) error
	// ListNotes returns notes newest first. A limit <= 0 means no limit.
	ListNotes(ctx context.Context, offset, limit int) ([]*models.Note, error)
	// AllNotes returns every note in creation order.
	AllNotes(ctx context.Context) ([]*models.Note, error)
	CountNotes(ctx context.Context) (int64, error)

	Close() error
}

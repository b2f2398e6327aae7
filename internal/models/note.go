// Package models defines core data structures for notes, search queries, and search results.
package models

import "time"

// Note is a stored note. Notes imported from watched files carry their source path.
type Note struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	SourcePath  string    `json:"source_path,omitempty" db:"source_path"`
	SourceMtime int64     `json:"-" db:"source_mtime"`
	SourceSize  int64     `json:"-" db:"source_size"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EmbeddingText returns the text a note is embedded from: title and content joined by a space.
func (n *Note) EmbeddingText() string {
	return n.Title + " " + n.Content
}

// NoteInput is the input for creating or updating a note.
// On update, nil fields are left unchanged.
type NoteInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

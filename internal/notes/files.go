package notes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/fileid"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

// ImportFile creates or updates the note backed by the file at path. The note ID is
// derived from the absolute path; the title is the file name without extension.
// Files unchanged since the last import (same mtime and size) are skipped.
func (s *Service) ImportFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if len(s.extensions) > 0 && !extensionAllowed(filepath.Ext(absPath), s.extensions) {
		return fmt.Errorf("extension %q not in allowed list", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := fileid.NoteID(absPath)
	existing, err := s.store.GetNote(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNoteNotFound) {
		return err
	}
	if existing != nil && unchanged(existing, absPath, info) {
		if !s.indexer.Has(id) {
			s.index(ctx, existing)
		}
		s.logger.Debug("skipping unchanged note file", zap.String("path", absPath))
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	note := &models.Note{
		ID:          id,
		Title:       fileid.Title(absPath),
		Content:     string(content),
		SourcePath:  absPath,
		SourceMtime: info.ModTime().UnixNano(),
		SourceSize:  info.Size(),
	}
	if existing == nil {
		err = s.store.CreateNote(ctx, note)
	} else {
		note.CreatedAt = existing.CreatedAt
		err = s.store.UpdateNote(ctx, note)
	}
	if err != nil {
		return err
	}
	s.index(ctx, note)
	s.logger.Debug("note file imported", zap.String("path", absPath), zap.String("id", id))
	return nil
}

func unchanged(note *models.Note, absPath string, info os.FileInfo) bool {
	return note.SourcePath == absPath &&
		note.SourceMtime == info.ModTime().UnixNano() &&
		note.SourceSize == info.Size()
}

// RemoveFile deletes the note backed by path. Unknown paths are ignored.
func (s *Service) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.deleteLocked(ctx, fileid.NoteID(absPath))
	if errors.Is(err, storage.ErrNoteNotFound) {
		return nil
	}
	if err == nil {
		s.logger.Debug("note file removed", zap.String("path", absPath))
	}
	return err
}

// ImportDirectory walks dir and imports each regular file with an allowed extension.
// Returns the number of files imported; the walk stops at the first error.
func (s *Service) ImportDirectory(ctx context.Context, dir string, recursive bool) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if len(s.extensions) > 0 && !extensionAllowed(filepath.Ext(path), s.extensions) {
			return nil
		}
		// Resolve symlinks so only regular files are imported.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if err := s.ImportFile(ctx, path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// PruneMissingFiles deletes file-backed notes whose file no longer exists.
func (s *Service) PruneMissingFiles(ctx context.Context) (int, error) {
	notes, err := s.store.AllNotes(ctx)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, note := range notes {
		if note.SourcePath == "" {
			continue
		}
		if _, err := os.Stat(note.SourcePath); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := s.RemoveFile(ctx, note.SourcePath); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

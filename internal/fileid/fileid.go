// Package fileid derives deterministic note IDs for files in watched directories.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "file:"

// NoteID returns a stable note ID for the given absolute path.
// Same path always yields the same ID, so re-importing a file updates the same note.
func NoteID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// IsFileNote reports whether id was produced by NoteID.
func IsFileNote(id string) bool {
	return strings.HasPrefix(id, prefix)
}

// Title returns the note title for a file: its base name without extension.
func Title(path string) string {
	base := filepath.Base(path)
	if t := strings.TrimSuffix(base, filepath.Ext(base)); t != "" {
		return t
	}
	return base
}

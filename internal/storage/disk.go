package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are the suffixes of files SQLite keeps next to a WAL-mode database.
var sqliteSidecars = []string{"-wal", "-shm"}

// DiskUsageBytes returns the bytes used on disk by the note database at dbPath
// (including its WAL and shared-memory files) and the full-text index directory.
// Missing paths count as zero.
func DiskUsageBytes(dbPath, indexPath string) (int64, error) {
	var total int64
	if dbPath != "" && dbPath != memoryDSN {
		for _, p := range append([]string{dbPath}, sidecarPaths(dbPath)...) {
			n, err := pathSize(p)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	if indexPath != "" {
		n, err := pathSize(indexPath)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func sidecarPaths(dbPath string) []string {
	paths := make([]string, len(sqliteSidecars))
	for i, s := range sqliteSidecars {
		paths[i] = dbPath + s
	}
	return paths
}

// pathSize sums regular files under p, which may be a file or a directory.
// Files removed during the walk are skipped.
func pathSize(p string) (int64, error) {
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	var total int64
	err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

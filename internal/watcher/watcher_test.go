package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingHandler records imported and removed paths.
type recordingHandler struct {
	mu       sync.Mutex
	imported []string
	removed  []string
}

func (h *recordingHandler) ImportFile(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.imported = append(h.imported, path)
	return nil
}

func (h *recordingHandler) RemoveFile(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, path)
	return nil
}

func (h *recordingHandler) snapshot() (imported, removed []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.imported...), append([]string(nil), h.removed...)
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func containsSuffix(paths []string, suffix string) bool {
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, dir string, exts []string, h Handler) *Watcher {
	t.Helper()
	w := NewWatcher([]string{dir}, exts, true, h, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	h := &recordingHandler{}
	startWatcher(t, dir, []string{".md"}, h)

	fPath := filepath.Join(sub, "f.md")
	for i := 0; i < 3; i++ {
		if err := writeFile(fPath, strings.Repeat("x", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(sub, "skip.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		imported, _ := h.snapshot()
		return containsSuffix(imported, "f.md")
	})
	if !ok {
		t.Fatal("expected f.md to be imported")
	}
	time.Sleep(150 * time.Millisecond)
	imported, _ := h.snapshot()
	if containsSuffix(imported, "skip.xyz") {
		t.Errorf("skip.xyz should not be imported: %v", imported)
	}
	if len(imported) > 2 {
		t.Errorf("writes should be debounced, got %d imports: %v", len(imported), imported)
	}
}

func TestWatcher_RemoveAndRename(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.md")
	moved := filepath.Join(dir, "moved.md")
	for _, p := range []string{gone, moved} {
		if err := writeFile(p, "content"); err != nil {
			t.Fatal(err)
		}
	}
	h := &recordingHandler{}
	startWatcher(t, dir, []string{".md"}, h)

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(moved, filepath.Join(dir, "moved.bak")); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		_, removed := h.snapshot()
		return containsSuffix(removed, "gone.md") && containsSuffix(removed, "moved.md")
	})
	if !ok {
		_, removed := h.snapshot()
		t.Errorf("expected gone.md and moved.md to be removed, got %v", removed)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.md", []string{".md", ".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.md", []string{"txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
		{"/a/b", []string{".md"}, false},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}
	h := &recordingHandler{}
	w := startWatcher(t, dir, []string{".txt"}, h)
	w.SyncExistingFiles()

	imported, _ := h.snapshot()
	if len(imported) != 1 || !strings.HasSuffix(imported[0], "a.txt") {
		t.Errorf("expected one imported file a.txt, got %v", imported)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")

	w := NewWatcher([]string{root}, []string{".md"}, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, false, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_NewDirectoryImportsFiles(t *testing.T) {
	dir := t.TempDir()
	h := &recordingHandler{}
	startWatcher(t, dir, []string{".txt", ".md"}, h)

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.txt"), "deep content"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "level1", "top.md"), "top"); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 3*time.Second, func() bool {
		imported, _ := h.snapshot()
		return containsSuffix(imported, "deep.txt") && containsSuffix(imported, "top.md")
	})
	if !ok {
		imported, _ := h.snapshot()
		t.Errorf("expected deep.txt and top.md to be imported, got %v", imported)
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

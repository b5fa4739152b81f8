package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/internal/storage"
)

// newTestStorage creates a LocalStorage backed by a temporary directory
// seeded with the given files.
func newTestStorage(t *testing.T, files map[string]string) *LocalStorage {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	s, err := New(&config.LocalStorageConfig{BasePath: dir})
	if err != nil {
		t.Fatal("New:", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(&config.LocalStorageConfig{BasePath: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Error("New() = nil error, want error for missing base path")
	}
}

func TestNew_FileInsteadOfDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(file, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(&config.LocalStorageConfig{BasePath: file}); err == nil {
		t.Error("New() = nil error, want error when base path is a file")
	}
}

// ---------------------------------------------------------------------------
// Download
// ---------------------------------------------------------------------------

func TestDownload(t *testing.T) {
	s := newTestStorage(t, map[string]string{"model_a/MODEL.py": "print('a')\n"})

	rc, err := s.Download(context.Background(), "model_a/MODEL.py")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "print('a')\n" {
		t.Errorf("Download() content = %q", data)
	}
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestStorage(t, nil)

	_, err := s.Download(context.Background(), "model_x/model.yaml")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}

func TestDownload_Directory(t *testing.T) {
	s := newTestStorage(t, map[string]string{"model_a/model.yaml": "x"})

	if _, err := s.Download(context.Background(), "model_a"); err == nil {
		t.Error("Download() = nil error, want error for directory")
	}
}

func TestDownload_RejectsEscapingPaths(t *testing.T) {
	s := newTestStorage(t, nil)

	for _, p := range []string{"../etc/passwd", "/etc/passwd", "a/../../b"} {
		if _, err := s.Download(context.Background(), p); err == nil {
			t.Errorf("Download(%q) = nil error, want rejection", p)
		}
	}
}

// ---------------------------------------------------------------------------
// Exists
// ---------------------------------------------------------------------------

func TestExists(t *testing.T) {
	s := newTestStorage(t, map[string]string{"registry/models.json": "{}"})
	ctx := context.Background()

	ok, err := s.Exists(ctx, "registry/models.json")
	if err != nil || !ok {
		t.Errorf("Exists(file) = %v, %v; want true, nil", ok, err)
	}

	ok, err = s.Exists(ctx, "registry/other.json")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}

	ok, err = s.Exists(ctx, "registry")
	if err != nil || ok {
		t.Errorf("Exists(dir) = %v, %v; want false, nil", ok, err)
	}
}

// ---------------------------------------------------------------------------
// GetMetadata
// ---------------------------------------------------------------------------

func TestGetMetadata(t *testing.T) {
	s := newTestStorage(t, map[string]string{"model_a/model.yaml": "name: a\n"})

	meta, err := s.GetMetadata(context.Background(), "model_a/model.yaml")
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	if meta.Size != 8 {
		t.Errorf("Size = %d, want 8", meta.Size)
	}
	if meta.LastModified.IsZero() {
		t.Error("LastModified is zero")
	}

	_, err = s.GetMetadata(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetMetadata(missing) error = %v, want ErrNotFound", err)
	}
}

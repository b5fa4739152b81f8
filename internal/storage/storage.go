// Package storage defines the read-only Storage interface the model hub uses to
// fetch the registry document and per-model artifacts.
//
// Backends register themselves with the factory from an init() function in
// their own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (storage.Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The command package blank-imports each backend to trigger registration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrTooLarge is returned by ReadFile when an object exceeds the read limit.
	ErrTooLarge = errors.New("object exceeds size limit")
)

// Storage is implemented by every backend. Paths are slash-separated and
// relative to the backend root (directory, bucket or container).
type Storage interface {
	// Download returns a reader for the object at path. Callers close it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetMetadata returns size and modification time without reading content.
	GetMetadata(ctx context.Context, path string) (*FileMetadata, error)
}

// FileMetadata describes a stored object
type FileMetadata struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// ReadFile downloads the object at path and returns its content. A limit of
// zero or less disables the size check. With a limit, objects whose metadata
// already reports a larger size are rejected without downloading them; the
// limit is still enforced on the stream since metadata can be stale.
func ReadFile(ctx context.Context, s Storage, path string, limit int64) ([]byte, error) {
	if limit > 0 {
		meta, err := s.GetMetadata(ctx, path)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, err
		case err == nil && meta.Size > limit:
			return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrTooLarge, meta.Size, limit)
		}
	}

	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrTooLarge, limit)
	}
	return data, nil
}

// Package artifact loads the two text artifacts every model ships with: its
// configuration (model.yaml) and its source code (MODEL.py). Loading never
// fails from the caller's point of view; anything that goes wrong yields
// Placeholder instead.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/openuba/model-hub/internal/storage"
	"github.com/openuba/model-hub/internal/telemetry"
)

// Placeholder is returned whenever an artifact cannot be loaded
const Placeholder = "# Source not available"

// Kind selects which artifact to load
type Kind string

const (
	KindConfiguration Kind = "config"
	KindSourceCode    Kind = "source"
)

// ErrUnknownKind is returned by ParseKind for anything but "config" and "source".
var ErrUnknownKind = errors.New("unknown artifact kind")

// ParseKind validates an artifact kind taken from a URL or flag.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindConfiguration, KindSourceCode:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// FileName is the fixed file name of the artifact inside a model directory
func (k Kind) FileName() string {
	switch k {
	case KindConfiguration:
		return "model.yaml"
	case KindSourceCode:
		return "MODEL.py"
	default:
		return ""
	}
}

// Pair holds both artifacts of one model
type Pair struct {
	Config string
	Source string
}

// Source is anything that can produce artifact text. Loader and Cached both
// satisfy it.
type Source interface {
	Load(ctx context.Context, entryPath string, kind Kind) string
}

// Loader reads artifacts from a storage backend
type Loader struct {
	src      storage.Storage
	root     string
	maxBytes int64
}

// NewLoader creates a loader reading from src. root is joined in front of every
// entry path; maxBytes caps artifact size (0 disables the cap).
func NewLoader(src storage.Storage, root string, maxBytes int64) *Loader {
	return &Loader{src: src, root: root, maxBytes: maxBytes}
}

// ObjectPath is the storage path of the artifact for entryPath
func (l *Loader) ObjectPath(entryPath string, kind Kind) string {
	return path.Join(l.root, entryPath, kind.FileName())
}

// Load returns the artifact text, or Placeholder if it cannot be read.
func (l *Loader) Load(ctx context.Context, entryPath string, kind Kind) string {
	text, err := l.fetch(ctx, entryPath, kind)
	if err != nil {
		return Placeholder
	}
	return text
}

// LoadPair loads both artifacts independently; one failing does not affect the other.
func (l *Loader) LoadPair(ctx context.Context, entryPath string) Pair {
	return loadPair(ctx, l, entryPath)
}

func loadPair(ctx context.Context, s Source, entryPath string) Pair {
	return Pair{
		Config: s.Load(ctx, entryPath, KindConfiguration),
		Source: s.Load(ctx, entryPath, KindSourceCode),
	}
}

// fetch does the actual read and reports why it failed. Every failure is
// logged and counted here so callers only see the placeholder.
func (l *Loader) fetch(ctx context.Context, entryPath string, kind Kind) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "artifact.Load")
	defer span.End()
	span.SetAttributes(
		attribute.String("artifact.path", entryPath),
		attribute.String("artifact.kind", string(kind)),
	)

	text, err := l.read(ctx, entryPath, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "artifact unavailable")
		telemetry.ArtifactFallbacksTotal.WithLabelValues(string(kind)).Inc()
		slog.DebugContext(ctx, "artifact unavailable, using placeholder",
			"path", entryPath,
			"kind", kind,
			"error", err,
		)
		return "", err
	}
	return text, nil
}

func (l *Loader) read(ctx context.Context, entryPath string, kind Kind) (string, error) {
	if kind.FileName() == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if entryPath == "" {
		return "", errors.New("entry has no path")
	}

	data, err := storage.ReadFile(ctx, l.src, l.ObjectPath(entryPath, kind), l.maxBytes)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.New("artifact is not valid UTF-8")
	}
	return string(data), nil
}

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"

	"github.com/openuba/model-hub/internal/storage"
	"github.com/openuba/model-hub/internal/telemetry"
)

// Format is the encoding of a registry document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the document format from the file extension.
func FormatForPath(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported registry format %q (want .json, .yaml or .yml)", path.Ext(p))
	}
}

// RegistryLoadError reports a registry document that could not be read,
// decoded or validated. No partial store accompanies it.
type RegistryLoadError struct {
	Path string
	Err  error
}

func (e *RegistryLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load registry: %v", e.Err)
	}
	return fmt.Sprintf("load registry %s: %v", e.Path, e.Err)
}

func (e *RegistryLoadError) Unwrap() error { return e.Err }

// slugPattern keeps slugs usable as a single URL path segment.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// document mirrors Registry but detects a missing models key.
type document struct {
	Version string   `json:"version" yaml:"version"`
	Updated string   `json:"updated" yaml:"updated"`
	Models  *[]Entry `json:"models" yaml:"models"`
}

// Load reads the registry document at p from src and builds a Store.
func Load(ctx context.Context, src storage.Storage, p string) (*Store, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "catalog.Load")
	defer span.End()
	span.SetAttributes(attribute.String("registry.path", p))

	store, err := load(ctx, src, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry load failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("registry.entries", store.Len()))
	slog.Info("registry loaded",
		"path", p,
		"models", store.Len(),
		"registry_version", store.Registry().Version,
	)
	return store, nil
}

func load(ctx context.Context, src storage.Storage, p string) (*Store, error) {
	format, err := FormatForPath(p)
	if err != nil {
		return nil, &RegistryLoadError{Path: p, Err: err}
	}

	data, err := storage.ReadFile(ctx, src, p, 0)
	if err != nil {
		return nil, &RegistryLoadError{Path: p, Err: err}
	}

	store, err := Parse(data, format)
	if err != nil {
		var loadErr *RegistryLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = p
		}
		return nil, err
	}
	return store, nil
}

// Parse decodes and validates a registry document.
func Parse(data []byte, format Format) (*Store, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, &RegistryLoadError{Err: err}
	}
	if doc.Models == nil {
		return nil, &RegistryLoadError{Err: errors.New(`registry document has no "models" key`)}
	}

	reg := Registry{
		Version: doc.Version,
		Updated: doc.Updated,
		Models:  *doc.Models,
	}
	if err := validate(reg.Models); err != nil {
		return nil, &RegistryLoadError{Err: err}
	}

	return newStore(reg), nil
}

func decode(data []byte, format Format) (*document, error) {
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if dec.More() {
			return nil, errors.New("decode json: trailing data after registry document")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("decode yaml: empty document")
			}
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported registry format %q", format)
	}
	return &doc, nil
}

// validate checks every entry and reports all problems at once.
func validate(models []Entry) error {
	var errs []error
	seen := make(map[string]int, len(models))

	for i, e := range models {
		where := fmt.Sprintf("models[%d]", i)
		if e.Slug != "" {
			where = fmt.Sprintf("models[%d] (%s)", i, e.Slug)
		}
		fail := func(format string, args ...any) {
			errs = append(errs, fmt.Errorf("%s: %s", where, fmt.Sprintf(format, args...)))
		}

		if strings.TrimSpace(e.Name) == "" {
			fail("name is required")
		}
		if strings.TrimSpace(e.Framework) == "" {
			fail("framework is required")
		}
		if strings.TrimSpace(e.Path) == "" {
			fail("path is required")
		}

		switch {
		case e.Slug == "":
			fail("slug is required")
		case !slugPattern.MatchString(e.Slug):
			fail("slug %q must match %s", e.Slug, slugPattern)
		default:
			if first, dup := seen[e.Slug]; dup {
				fail("duplicate slug %q (first used by models[%d])", e.Slug, first)
			} else {
				seen[e.Slug] = i
			}
		}

		if _, err := version.NewVersion(e.Version); err != nil {
			fail("invalid version %q: %v", e.Version, err)
		}

		params := make(map[string]bool, len(e.Parameters))
		for j, p := range e.Parameters {
			if p.Name == "" {
				fail("parameters[%d]: name is required", j)
				continue
			}
			if params[p.Name] {
				fail("parameters[%d]: duplicate parameter %q", j, p.Name)
			}
			params[p.Name] = true
			if p.Default.Kind() == KindInvalid {
				fail("parameter %q: default must be a number, string or boolean", p.Name)
			}
		}
	}

	return errors.Join(errs...)
}

// Package site exports the catalog as a static website: the listing page, one
// pre-filtered listing per framework, one detail page per model, a JSON index
// and a 404 page, all linked under an optional base path. Unchanged files are left untouched so repeated builds
// only rewrite what moved.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/catalog"
	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/internal/pages"
	"github.com/openuba/model-hub/internal/telemetry"
)

// Output file names, relative to the output directory
const (
	ListingFile     = "models/index.html"
	SearchIndexFile = "models/index.json"
	NotFoundFile    = "404.html"
)

// DetailFile returns the output file of a model's detail page
func DetailFile(slug string) string {
	return path.Join("models", slug, "index.html")
}

// FrameworkFile returns the output file of a framework's filtered listing
func FrameworkFile(segment string) string {
	return path.Join("models", "framework", segment, "index.html")
}

// frameworkSegments assigns each framework a distinct, URL-safe directory
// name. Frameworks are visited in sorted order so the mapping is stable.
func frameworkSegments(frameworks []string) map[string]string {
	segs := make(map[string]string, len(frameworks))
	taken := make(map[string]bool, len(frameworks))
	for _, fw := range frameworks {
		base := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
				return r
			}
			return '-'
		}, strings.ToLower(fw))
		if base == "" || base == "." || base == ".." {
			base = "framework"
		}
		seg := base
		for n := 2; taken[seg]; n++ {
			seg = base + "-" + strconv.Itoa(n)
		}
		taken[seg] = true
		segs[fw] = seg
	}
	return segs
}

// PairLoader loads both artifacts of a model
type PairLoader interface {
	LoadPair(ctx context.Context, entryPath string) artifact.Pair
}

// Result summarises one build
type Result struct {
	Written   []string
	Unchanged []string
}

// Total is the number of pages the build produced
func (r *Result) Total() int { return len(r.Written) + len(r.Unchanged) }

// Builder renders a store into a directory
type Builder struct {
	outDir      string
	concurrency int
	store       *catalog.Store
	artifacts   PairLoader
	pages       *pages.Renderer
	// framework value -> directory under models/framework
	segments map[string]string
}

// NewBuilder creates a builder for one store. Links honour cfg.Build.BasePath.
func NewBuilder(cfg *config.Config, store *catalog.Store, artifacts PairLoader) *Builder {
	concurrency := cfg.Build.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	segs := frameworkSegments(store.Frameworks())
	return &Builder{
		outDir:      cfg.Build.OutputDir,
		concurrency: concurrency,
		store:       store,
		artifacts:   artifacts,
		segments:    segs,
		pages: pages.New(pages.Options{
			BasePath:       cfg.Build.BasePath,
			TrailingSlash:  true,
			SourceBaseURL:  cfg.Catalog.SourceBaseURL,
			InstallTool:    cfg.Catalog.InstallTool,
			Static:         true,
			FrameworkPaths: segs,
		}),
	}
}

type job struct {
	file   string
	render func(ctx context.Context, buf *bytes.Buffer) error
}

// Build writes every page. Pages render concurrently; the first failure
// cancels the rest and is returned.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "site.Build")
	defer span.End()

	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	jobs := b.jobs()
	span.SetAttributes(attribute.Int("site.pages", len(jobs)))

	var (
		mu     sync.Mutex
		result Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			written, err := b.run(gctx, j)
			if err != nil {
				return fmt.Errorf("build %s: %w", j.file, err)
			}
			mu.Lock()
			if written {
				result.Written = append(result.Written, j.file)
			} else {
				result.Unchanged = append(result.Unchanged, j.file)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slog.InfoContext(ctx, "site built",
		"output", b.outDir,
		"written", len(result.Written),
		"unchanged", len(result.Unchanged))
	return &result, nil
}

func (b *Builder) jobs() []job {
	jobs := []job{
		{file: ListingFile, render: func(_ context.Context, buf *bytes.Buffer) error {
			models := b.store.All()
			return b.pages.Listing(buf, b.pages.NewListingData(b.store, catalog.Query{}, pages.ViewGrid, models))
		}},
		{file: SearchIndexFile, render: func(_ context.Context, buf *bytes.Buffer) error {
			return b.writeSearchIndex(buf)
		}},
		{file: NotFoundFile, render: func(_ context.Context, buf *bytes.Buffer) error {
			return b.pages.NotFound(buf, "")
		}},
	}
	for _, fw := range b.store.Frameworks() {
		q := catalog.Query{Framework: catalog.Framework(fw)}
		jobs = append(jobs, job{file: FrameworkFile(b.segments[fw]), render: func(_ context.Context, buf *bytes.Buffer) error {
			models := catalog.Filter(b.store.All(), q)
			return b.pages.Listing(buf, b.pages.NewListingData(b.store, q, pages.ViewGrid, models))
		}})
	}
	for _, e := range b.store.All() {
		jobs = append(jobs, job{file: DetailFile(e.Slug), render: func(ctx context.Context, buf *bytes.Buffer) error {
			pair := b.artifacts.LoadPair(ctx, e.Path)
			return b.pages.Detail(buf, b.pages.NewDetailData(e, pair))
		}})
	}
	return jobs
}

func (b *Builder) run(ctx context.Context, j job) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ctx, span := telemetry.Tracer().Start(ctx, "site.Page",
		trace.WithAttributes(attribute.String("site.file", j.file)))
	defer span.End()

	var buf bytes.Buffer
	if err := j.render(ctx, &buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	written, err := writeIfChanged(filepath.Join(b.outDir, filepath.FromSlash(j.file)), buf.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	outcome := "unchanged"
	if written {
		outcome = "written"
	}
	span.SetAttributes(attribute.String("site.outcome", outcome))
	telemetry.PagesBuiltTotal.WithLabelValues(outcome).Inc()
	return written, nil
}

// writeIfChanged replaces dst with data unless it already holds the same
// bytes. The write goes through a temp file so readers never see a partial page.
func writeIfChanged(dst string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(dst); err == nil && len(existing) == len(data) &&
		xxhash.Sum64(existing) == xxhash.Sum64(data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".page-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return false, err
	}
	return true, nil
}

// SearchIndex is the machine-readable catalog written next to the listing
type SearchIndex struct {
	Version    string        `json:"version"`
	Updated    string        `json:"updated"`
	Frameworks []string      `json:"frameworks"`
	Tags       []string      `json:"tags"`
	Models     []IndexRecord `json:"models"`
}

// IndexRecord is one model in the search index
type IndexRecord struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Framework   string   `json:"framework"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
}

func (b *Builder) writeSearchIndex(buf *bytes.Buffer) error {
	idx := SearchIndex{
		Version:    b.store.Version(),
		Updated:    b.store.Updated(),
		Frameworks: b.store.Frameworks(),
		Tags:       b.store.Tags(),
		Models:     make([]IndexRecord, 0, b.store.Len()),
	}
	for _, e := range b.store.All() {
		idx.Models = append(idx.Models, IndexRecord{
			Slug:        e.Slug,
			Name:        e.Name,
			Version:     e.Version,
			Framework:   e.Framework,
			Description: e.Description,
			Tags:        e.Tags,
			URL:         b.pages.ModelURL(e.Slug),
		})
	}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	return enc.Encode(idx)
}

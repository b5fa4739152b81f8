// Package pages renders the catalog's HTML views: the model listing, the model
// detail page and the not-found page. The gin server and the static builder
// share one Renderer so both outputs are identical for the same inputs.
package pages

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views accepted by the listing page
const (
	ViewGrid = "grid"
	ViewList = "list"
)

// ParseView maps a ?view= value to ViewGrid or ViewList, defaulting to grid.
func ParseView(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), ViewList) {
		return ViewList
	}
	return ViewGrid
}

// Options configure how links and commands are rendered
type Options struct {
	// BasePath prefixes every internal link, e.g. "/openuba-model-hub". Empty for root.
	BasePath string
	// TrailingSlash renders model links as /models/<slug>/ for static hosting.
	TrailingSlash bool
	// SourceBaseURL is joined with an entry path to build the "Source" link.
	SourceBaseURL string
	// InstallTool is the CLI name shown in install commands.
	InstallTool string
	// Static renders pages for a plain file host: no search form or view
	// toggle, and framework filters link to pre-rendered pages.
	Static bool
	// FrameworkPaths maps a framework to its directory under
	// models/framework/ in static mode.
	FrameworkPaths map[string]string
}

// Renderer executes the embedded templates
type Renderer struct {
	opts     Options
	listing  *template.Template
	detail   *template.Template
	notFound *template.Template
}

// New parses the embedded templates. It panics if they are malformed.
func New(opts Options) *Renderer {
	opts.BasePath = strings.TrimSuffix(opts.BasePath, "/")
	if opts.InstallTool == "" {
		opts.InstallTool = catalog.DefaultInstallTool
	}
	r := &Renderer{opts: opts}

	funcs := template.FuncMap{
		"listingURL": r.ListingURL,
		"modelURL":   r.ModelURL,
		"install":    r.InstallCommand,
		"join":       strings.Join,
	}
	parse := func(page string) *template.Template {
		return template.Must(template.New("layout").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+page))
	}
	r.listing = parse("listing.html")
	r.detail = parse("detail.html")
	r.notFound = parse("notfound.html")
	return r
}

// ListingURL returns the link to the model listing
func (r *Renderer) ListingURL() string {
	if r.opts.TrailingSlash {
		return r.opts.BasePath + "/models/"
	}
	return r.opts.BasePath + "/models"
}

// ModelURL returns the link to a model's detail page
func (r *Renderer) ModelURL(slug string) string {
	u := r.opts.BasePath + "/models/" + url.PathEscape(slug)
	if r.opts.TrailingSlash {
		u += "/"
	}
	return u
}

// SourceURL returns the repository link for an entry path, or "" when no
// source base URL is configured.
func (r *Renderer) SourceURL(entryPath string) string {
	if r.opts.SourceBaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(r.opts.SourceBaseURL, "/") + "/" + strings.TrimPrefix(entryPath, "/")
}

// FrameworkURL links to the listing filtered by framework. The server uses a
// query parameter; a static export links to the framework's own page.
func (r *Renderer) FrameworkURL(framework string) string {
	if r.opts.Static {
		seg, ok := r.opts.FrameworkPaths[framework]
		if !ok {
			return r.ListingURL()
		}
		return r.opts.BasePath + "/models/framework/" + url.PathEscape(seg) + "/"
	}
	return r.ListingURL() + "?" + url.Values{"framework": {framework}}.Encode()
}

// InstallCommand returns the install command for an entry name
func (r *Renderer) InstallCommand(name string) string {
	return catalog.FormatInstallCommand(r.opts.InstallTool, name)
}

// ListingData is the input of the listing page
type ListingData struct {
	Models  []catalog.Entry
	Filters []FilterLink
	Query   string
	// Framework is the selected filter value, catalog.AllFrameworks when unfiltered.
	Framework string
	Filtered  bool
	View      string
	Total     int
	Count     int
	Static    bool
	GridURL   string
	ListURL   string
	// ClearURL drops the search text and framework filter
	ClearURL string
}

// FilterLink is one entry of the framework filter bar
type FilterLink struct {
	Label  string
	URL    string
	Active bool
}

// NewListingData builds the listing view for a filtered result
func (r *Renderer) NewListingData(store *catalog.Store, q catalog.Query, view string, models []catalog.Entry) ListingData {
	view = ParseView(view)
	d := ListingData{
		Models:    models,
		Query:     q.Text,
		Framework: catalog.AllFrameworks,
		Filtered:  q.Framework != nil,
		View:      view,
		Total:     store.Len(),
		Count:     len(models),
		Static:    r.opts.Static,
		ClearURL:  r.ListingURL(),
	}
	if q.Framework != nil {
		d.Framework = *q.Framework
	}

	d.Filters = append(d.Filters, FilterLink{
		Label:  catalog.AllFrameworks,
		URL:    r.filterURL(catalog.Query{Text: q.Text}, view),
		Active: q.Framework == nil,
	})
	for _, fw := range store.Frameworks() {
		d.Filters = append(d.Filters, FilterLink{
			Label:  fw,
			URL:    r.filterURL(catalog.Query{Text: q.Text, Framework: catalog.Framework(fw)}, view),
			Active: q.Framework != nil && *q.Framework == fw,
		})
	}

	if !r.opts.Static {
		d.GridURL = r.listingQuery(q, ViewGrid)
		d.ListURL = r.listingQuery(q, ViewList)
	}
	return d
}

func (r *Renderer) filterURL(q catalog.Query, view string) string {
	if r.opts.Static {
		if q.Framework == nil {
			return r.ListingURL()
		}
		return r.FrameworkURL(*q.Framework)
	}
	return r.listingQuery(q, view)
}

// listingQuery keeps the active search and filter when switching views
func (r *Renderer) listingQuery(q catalog.Query, view string) string {
	v := url.Values{}
	if strings.TrimSpace(q.Text) != "" {
		v.Set("q", q.Text)
	}
	if q.Framework != nil {
		v.Set("framework", *q.Framework)
	}
	if view != ViewGrid {
		v.Set("view", view)
	}
	if len(v) == 0 {
		return r.ListingURL()
	}
	return r.ListingURL() + "?" + v.Encode()
}

// DetailData is the input of the detail page
type DetailData struct {
	Entry          catalog.Entry
	Artifacts      artifact.Pair
	InstallCommand string
	SourceURL      string
}

// NewDetailData builds the detail view for an entry and its artifacts
func (r *Renderer) NewDetailData(e catalog.Entry, pair artifact.Pair) DetailData {
	return DetailData{
		Entry:          e,
		Artifacts:      pair,
		InstallCommand: r.InstallCommand(e.Name),
		SourceURL:      r.SourceURL(e.Path),
	}
}

// Listing renders the listing page
func (r *Renderer) Listing(w io.Writer, d ListingData) error {
	return r.listing.ExecuteTemplate(w, "layout", d)
}

// Detail renders a model detail page
func (r *Renderer) Detail(w io.Writer, d DetailData) error {
	return r.detail.ExecuteTemplate(w, "layout", d)
}

// NotFound renders the not-found page. slug may be empty for a generic 404.
func (r *Renderer) NotFound(w io.Writer, slug string) error {
	return r.notFound.ExecuteTemplate(w, "layout", struct{ Slug string }{slug})
}

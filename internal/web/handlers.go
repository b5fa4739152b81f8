package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/catalog"
	"github.com/openuba/model-hub/pkg/checksum"
)

const htmlContentType = "text/html; charset=utf-8"

// modelResponse is an entry as returned by the API
type modelResponse struct {
	catalog.Entry
	InstallCommand string `json:"install_command"`
}

type listMeta struct {
	Total           int      `json:"total"`
	Count           int      `json:"count"`
	Frameworks      []string `json:"frameworks"`
	Tags            []string `json:"tags"`
	RegistryVersion string   `json:"registry_version"`
	Updated         string   `json:"updated"`
}

type listResponse struct {
	Models []catalog.Entry `json:"models"`
	Meta   listMeta        `json:"meta"`
}

func queryFrom(c *gin.Context) catalog.Query {
	return catalog.Query{
		Text:      c.Query("q"),
		Framework: catalog.ParseFramework(c.Query("framework")),
	}
}

// listingPage renders /models with the filtered result
func (s *Server) listingPage(c *gin.Context) {
	q := queryFrom(c)
	models := s.memo.Search(q)

	if s.sessions != nil {
		if strings.TrimSpace(q.Text) != "" {
			s.sessions.Get(c).Searched(q.Text, len(models))
		} else if sess := s.sessions.Lookup(c); sess != nil {
			// clearing the search box cancels a pending report
			sess.Searched(q.Text, len(models))
		}
	}

	var buf bytes.Buffer
	if err := s.pages.Listing(&buf, s.pages.NewListingData(s.store, q, c.Query("view"), models)); err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// detailPage renders /models/:slug, or the not-found page for an unknown slug
func (s *Server) detailPage(c *gin.Context) {
	slug := c.Param("slug")
	entry, err := s.store.Resolve(slug)
	if errors.Is(err, catalog.ErrNotFound) {
		s.renderNotFound(c, slug)
		return
	}

	ctx := c.Request.Context()
	pair := s.artifacts.LoadPair(ctx, entry.Path)

	if s.sessions != nil {
		s.sessions.Get(c).Viewed(ctx, entry.Slug, entry.Name)
	}

	var buf bytes.Buffer
	if err := s.pages.Detail(&buf, s.pages.NewDetailData(entry, pair)); err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (s *Server) renderNotFound(c *gin.Context, slug string) {
	var buf bytes.Buffer
	if err := s.pages.NotFound(&buf, slug); err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusNotFound, htmlContentType, buf.Bytes())
}

func (s *Server) renderError(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "render page", "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, "internal server error")
}

// listModels handles GET /api/v1/models?q=&framework=
func (s *Server) listModels(c *gin.Context) {
	models := s.memo.Search(queryFrom(c))

	c.JSON(http.StatusOK, listResponse{
		Models: models,
		Meta: listMeta{
			Total:           s.store.Len(),
			Count:           len(models),
			Frameworks:      s.store.Frameworks(),
			Tags:            s.store.Tags(),
			RegistryVersion: s.store.Version(),
			Updated:         s.store.Updated(),
		},
	})
}

// getModel handles GET /api/v1/models/:slug
func (s *Server) getModel(c *gin.Context) {
	entry, err := s.store.Resolve(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, modelResponse{
		Entry:          entry,
		InstallCommand: s.pages.InstallCommand(entry.Name),
	})
}

// getArtifact handles GET /api/v1/models/:slug/artifacts/:kind. A known slug
// always yields 200 (or 304 on a matching If-None-Match): unavailable
// artifacts come back as the placeholder.
func (s *Server) getArtifact(c *gin.Context) {
	kind, err := artifact.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := s.store.Resolve(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	content := s.artifacts.Load(c.Request.Context(), entry.Path, kind)
	etag := checksum.ETag(content)
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && checksum.MatchesETag(match, etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.String(http.StatusOK, content)
}

// Package web serves the model hub over HTTP: the server-rendered listing and
// detail pages, the read-only JSON API and the system endpoints.
//
// Route groups:
//   - /models, /models/:slug render HTML with the page security headers.
//   - /api/v1/... return JSON (artifact text as text/plain).
//   - /health, /ready, /version are unauthenticated probes.
package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/catalog"
	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/internal/middleware"
	"github.com/openuba/model-hub/internal/notify"
	"github.com/openuba/model-hub/internal/pages"
	"github.com/openuba/model-hub/internal/storage"
)

// Dependencies are the already-initialised components the router serves.
type Dependencies struct {
	Store    *catalog.Store
	Storage  storage.Storage
	Notifier notify.Notifier
	// Version is the binary version reported by /version
	Version string
}

// BackgroundServices holds resources with goroutines that must be stopped
// during graceful shutdown, after the HTTP server has drained.
type BackgroundServices struct {
	rateLimiter *middleware.RateLimiter
	sessions    *Sessions
}

// Shutdown stops the rate limiter cleanup and closes every visitor session,
// dropping pending search reports.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.rateLimiter != nil {
		bg.rateLimiter.Stop()
	}
	if bg.sessions != nil {
		bg.sessions.Close()
	}
	slog.Info("all background services stopped")
}

// Server holds the state shared by the handlers
type Server struct {
	cfg       *config.Config
	store     *catalog.Store
	storage   storage.Storage
	artifacts *artifact.Cached
	memo      *catalog.Memo
	pages     *pages.Renderer
	sessions  *Sessions
	version   string
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	loader := artifact.NewLoader(deps.Storage, cfg.Catalog.ArtifactRoot, cfg.Catalog.MaxArtifactBytes)
	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		storage:   deps.Storage,
		artifacts: artifact.NewCached(loader, cfg.Cache.ArtifactTTL),
		memo:      catalog.NewMemo(deps.Store, cfg.Cache.SearchTTL),
		pages: pages.New(pages.Options{
			SourceBaseURL: cfg.Catalog.SourceBaseURL,
			InstallTool:   cfg.Catalog.InstallTool,
		}),
		version: deps.Version,
	}
	if cfg.Notifications.Enabled {
		s.sessions = NewSessions(cfg.Cache.SessionTTL, notifier, cfg.Notifications.SearchDebounce)
		bg.sessions = s.sessions
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))

	var limit []gin.HandlerFunc
	if cfg.Security.RateLimiting.Enabled {
		bg.rateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
			BurstSize:         cfg.Security.RateLimiting.Burst,
			CleanupInterval:   5 * time.Minute,
		})
		limit = append(limit, middleware.RateLimitMiddleware(bg.rateLimiter))
	}
	apiHeaders := middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig())
	pageHeaders := middleware.SecurityHeadersMiddleware(middleware.PageSecurityHeadersConfig())

	system := router.Group("/", apiHeaders)
	{
		system.GET("/health", healthCheckHandler())
		system.GET("/ready", s.readinessHandler())
		system.GET("/version", s.versionHandler())
	}

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/models")
	})

	site := router.Group("/models", append([]gin.HandlerFunc{pageHeaders}, limit...)...)
	{
		site.GET("", s.listingPage)
		site.GET("/:slug", s.detailPage)
	}

	api := router.Group("/api/v1", append([]gin.HandlerFunc{apiHeaders}, limit...)...)
	{
		api.GET("/models", s.listModels)
		api.GET("/models/:slug", s.getModel)
		api.GET("/models/:slug/artifacts/:kind", s.getArtifact)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			apiHeaders(c)
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		pageHeaders(c)
		s.renderNotFound(c, "")
	})

	return router, bg
}

// LoggerMiddleware logs one structured record per request
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.LogAttrs(
			c.Request.Context(),
			level,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", c.GetString(middleware.RequestIDKey)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS. The catalog is read-only, so only GET and
// OPTIONS are advertised.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheckHandler reports liveness
func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler probes the storage backend for the registry document, so
// a readiness gate fails when artifacts could not be served.
func (s *Server) readinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{"registry": "loaded"}

		exists, err := s.storage.Exists(c.Request.Context(), s.cfg.Catalog.RegistryPath)
		if err != nil || !exists {
			checks["storage"] = "unhealthy"
			msg := "registry document not found in storage"
			if err != nil {
				slog.Warn("readiness probe failed", "error", err)
				msg = "storage backend not ready"
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  msg,
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the binary and registry versions
func (s *Server) versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":          s.version,
			"api_version":      "v1",
			"registry_version": s.store.Version(),
			"registry_updated": s.store.Updated(),
			"models":           s.store.Len(),
		})
	}
}

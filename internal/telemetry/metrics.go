// Package telemetry provides logging, metrics and tracing for the model hub.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served by the side-channel HTTP server the serve command starts:
//
//	GET http://<host>:<MH_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not part of the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Catalog size and search activity
//   - Artifact loader fallbacks and cache efficiency
//   - Search and detail-view notifications
//   - Static site page writes
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /models/:slug) rather than
// the raw request URL so model slugs and query strings never become label values.
// Search metrics record whether a framework filter was applied, never the query text.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Catalog metrics.
//
// RegistryEntries is set every time a registry document is loaded, so a drop to
// zero after a rebuild is visible immediately.
//
// SearchesTotal counts filter evaluations; label "filtered" is "true" when a
// framework filter was applied.
//
// SearchResults records how many entries each search returned.
//
// Example PromQL queries:
//   - Empty-result ratio: sum(rate(modelhub_search_results_bucket{le="0"}[1h])) / sum(rate(modelhub_search_results_count[1h]))
var (
	RegistryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelhub_registry_entries",
			Help: "Number of model entries in the most recently loaded registry.",
		},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelhub_searches_total",
			Help: "Total number of catalog searches, by whether a framework filter was applied.",
		},
		[]string{"filtered"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelhub_search_results",
			Help:    "Number of entries returned per catalog search.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// Artifact metrics.
//
// ArtifactFallbacksTotal counts artifact loads that produced the placeholder,
// by artifact kind ("config" or "source"). A rising rate usually means a model
// directory is missing its model.yaml or MODEL.py.
//
// ArtifactCacheTotal counts artifact cache lookups by result ("hit" or "miss").
var (
	ArtifactFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelhub_artifact_fallbacks_total",
			Help: "Total number of artifact loads that fell back to the placeholder, by artifact kind.",
		},
		[]string{"kind"},
	)

	ArtifactCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelhub_artifact_cache_total",
			Help: "Total number of artifact cache lookups, by result.",
		},
		[]string{"result"},
	)
)

// NotificationsTotal counts emitted notifications by type ("view" or "search").
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "modelhub_notifications_total",
		Help: "Total number of view and search notifications emitted, by type.",
	},
	[]string{"type"},
)

// PagesBuiltTotal counts static pages by outcome ("written" or "unchanged").
var PagesBuiltTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "modelhub_pages_built_total",
		Help: "Total number of static site pages processed by the builder, by outcome.",
	},
	[]string{"outcome"},
)

// Package middleware provides the Gin HTTP middleware shared by the model hub server.
// Everything here is registered in internal/web/router.go before any route handler so
// that listing pages, detail pages and the JSON API are covered alike.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openuba/model-hub/internal/telemetry"
)

// NoRouteLabel is the path label recorded for requests that matched no route.
const NoRouteLabel = "<no-route>"

// MetricsMiddleware returns a Gin handler that records, for every request:
//   - http_requests_total{method, path, status}
//   - http_request_duration_seconds{method, path}
//
// The path label is the matched route template (e.g. /models/:slug) rather than the
// raw URL, so one series covers every model slug. Unmatched requests use NoRouteLabel.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = NoRouteLabel
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

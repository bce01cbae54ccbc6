package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// If NoopMetrics, return a lightweight middleware that does nothing
	if _, ok := m.(*NoopMetrics); ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	// Type assert to concrete Metrics for in-flight gauge access
	promMetrics, ok := m.(*Metrics)

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		if ok {
			promMetrics.HTTPRequestsInFlight.Inc()
			defer promMetrics.HTTPRequestsInFlight.Dec()
		}

		// Process request
		c.Next()

		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		m.RecordHTTPRequest(method, path, status, time.Since(start))
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/api/lessons/:id/key") or "unknown" if no match
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

package middleware

import (
	"strconv"
	"time"

	"clinicflow/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records a Prometheus counter and latency histogram per request.
// Uses the route template (FullPath) rather than the raw URL to keep label
// cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

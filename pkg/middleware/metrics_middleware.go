package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lexiq-backend/internal/metrics"
)

// MetricsMiddleware counts requests and their latency per route template.
// Unmatched paths are grouped under "unmatched" to keep label cardinality low.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

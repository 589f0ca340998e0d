package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ortegadev/autoescuela-api/internal/service"
)

// Metrics records per-request duration and status. The route template
// (c.FullPath) keeps label cardinality bounded; unmatched requests fall
// back to the raw path.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

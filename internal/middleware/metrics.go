package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/service"
)

// Metrics records per-route request counts, durations and the in-flight
// gauge. Unmatched routes fall back to a single label so 404 probes do not
// create one series per URL.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		done := metricsSvc.RequestStarted()
		start := time.Now()
		c.Next()
		done()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/progressnav/canvas-pulse-api/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	cache   *service.CacheService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, cache *service.CacheService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready is the readiness probe. The cache is optional, so a broken Redis
// reports degraded without failing the probe; the process still serves
// traffic straight from the upstream.
func (h *MetricsHandler) Ready(c *gin.Context) {
	cacheStatus := "disabled"
	if h.cache.Enabled() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "degraded"
		} else {
			cacheStatus = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": cacheStatus})
}

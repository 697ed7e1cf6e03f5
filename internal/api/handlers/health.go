package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytget/ytinfo/youtube/cipher"
)

type HealthHandler struct {
	version string
	started time.Time
	cache   *cipher.ProgramCache
}

type HealthResponse struct {
	Status    string             `json:"status"`
	Timestamp string             `json:"timestamp"`
	Version   string             `json:"version"`
	Uptime    string             `json:"uptime"`
	Cache     *cipher.CacheStats `json:"program_cache,omitempty"`
}

// NewHealthHandler reports version and, when cache is set, program cache stats.
func NewHealthHandler(version string, cache *cipher.ProgramCache) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), cache: cache}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
	if h.cache != nil {
		st := h.cache.Stats()
		resp.Cache = &st
	}
	c.JSON(http.StatusOK, resp)
}

// Liveness handles GET /live.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

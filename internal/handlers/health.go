package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/pkg/logger"
)

// ServiceName is reported by the banner and health endpoints.
const ServiceName = "taskline"

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by every store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store is reachable.
type HealthHandler struct {
	store   Pinger
	version string
}

func NewHealthHandler(store Pinger, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// CheckHealth pings the store. The failure detail goes to the log only.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	status, dbStatus, code := "healthy", "ok", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		logger.LogError(err).Msg("health check: store ping failed")
		status, dbStatus, code = "unhealthy", "unreachable", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": ServiceName,
		"components": gin.H{
			"database": dbStatus,
		},
	})
}

// Root is the service banner
// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": h.version,
		"message": "Project management API",
	})
}

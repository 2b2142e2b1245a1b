package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/metrics"
)

// Metrics serves the prometheus exposition of m.
// GET /metrics
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}

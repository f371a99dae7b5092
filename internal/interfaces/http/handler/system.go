package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves liveness and readiness probes
type SystemHandler struct {
	BaseHandler
	db      Pinger
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{
		db:      db,
		version: version,
	}
}

// HealthResponse is the health probe body
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
}

// Health handles GET /healthz
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Database: "ok",
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
			c.JSON(503, resp)
			return
		}
	}

	c.JSON(200, resp)
}

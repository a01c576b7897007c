package handlers

import (
	"net/http"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/health"
	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker *health.HealthChecker
	service string
	version string
}

// NewHealthHandler builds the handler. checker may be nil.
func NewHealthHandler(checker *health.HealthChecker, service, version string) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		service: service,
		version: version,
	}
}

// HandleHealth reports liveness plus the latest per-service status.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	resp := models.HealthResponse{
		Status:    "ok",
		Service:   h.service,
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.checker != nil {
		resp.Services = h.checker.Latest(c.Request.Context()).Snapshot()
	}

	c.JSON(http.StatusOK, resp)
}

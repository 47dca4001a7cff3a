package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilvo/tasko/internal/server/http/dto"
)

// HealthHandler serves readiness checks.
type HealthHandler struct {
	facade HealthFacade
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(facade HealthFacade) *HealthHandler {
	return &HealthHandler{facade: facade}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.facade.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

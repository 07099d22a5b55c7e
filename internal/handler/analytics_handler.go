package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academiapress/platform-api/internal/service"
	"github.com/academiapress/platform-api/pkg/response"
)

// AnalyticsHandler exposes the dashboard aggregation endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler creates a new handler.
func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Aggregated revenue, trend, author performance and platform figures
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Refresh godoc
// @Summary Force dashboard recomputation
// @Description Drop the cached overview so the next read recomputes it
// @Tags Analytics
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /analytics/refresh [post]
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	h.service.Invalidate(c.Request.Context())
	response.NoContent(c)
}

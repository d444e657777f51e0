package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Analytics overview
// @Description  Aggregate view over all stored records: totals, error rate, top services, anomaly count, and hourly volume breakdown.
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  logsift.AnalyticsResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/analytics [get]
// @Security     BearerAuth
func (h *Handler) getAnalytics(c *gin.Context) {
	resp, err := h.services.Analytics.Overview(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("analytics_failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

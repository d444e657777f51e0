package handlers

import (
	"errors"
	"net/http"

	"logsift/internal/repository"

	"github.com/gin-gonic/gin"
)

// @Summary      Job status
// @Description  Returns the current state of an upload job (queued, processing, completed, failed) with the processed record count.
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  models.Job
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/jobs/{id} [get]
// @Security     BearerAuth
func (h *Handler) getJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.services.Jobs.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		if h.log != nil {
			h.log.Errorw("job_status_failed", "job_id", id, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

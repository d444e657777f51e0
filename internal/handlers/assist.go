package handlers

import (
	"net/http"

	"logsift"

	"github.com/gin-gonic/gin"
)

// @Summary      Ask about the logs
// @Description  Answers a natural-language question about stored records. Finds the most similar records by embedding search and produces a root-cause narrative; degrades to a fixed placeholder when AI collaborators are unavailable.
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request  body      logsift.AskRequest  true  "Question, optionally scoped to record ids"
// @Success      200      {object}  logsift.AskResponse
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /api/v1/ai/ask [post]
// @Security     BearerAuth
func (h *Handler) askAI(c *gin.Context) {
	var req logsift.AskRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	resp, err := h.services.Assist.Ask(c.Request.Context(), req)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ai_ask_failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze logs"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

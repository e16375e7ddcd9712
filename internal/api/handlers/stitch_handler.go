package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/utils"
)

type StitchHandler struct {
	svc      services.StitchService
	enqueuer services.StitchEnqueuer
}

func NewStitchHandler(svc services.StitchService, enqueuer services.StitchEnqueuer) *StitchHandler {
	return &StitchHandler{svc: svc, enqueuer: enqueuer}
}

// Stitch assembles the candidate's interview video. With ?async=1 the job
// is queued and 202 returned; otherwise the call blocks until the video
// (possibly cached) is ready.
func (h *StitchHandler) Stitch(c *gin.Context) {
	const op = "StitchHandler.Stitch"

	if _, ok := requireInterviewer(c); !ok {
		return
	}
	token := c.Param("token")

	if c.Query("async") == "1" {
		if h.enqueuer == nil {
			writeError(c, utils.E(utils.CodeUnavailable, op, "background stitching is not enabled", nil))
			return
		}
		if err := h.enqueuer.Enqueue(c.Request.Context(), token); err != nil {
			writeError(c, utils.E(utils.CodeUnavailable, op, "failed to queue stitch job", err))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		return
	}

	result, err := h.svc.Stitch(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

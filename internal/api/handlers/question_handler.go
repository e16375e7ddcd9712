package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/utils"
)

type QuestionHandler struct {
	svc services.QuestionService
}

func NewQuestionHandler(svc services.QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

type CreateQuestionRequest struct {
	RoleID        int64  `json:"role_id"`
	QuestionText  string `json:"question_text"`
	QuestionOrder int    `json:"question_order"`
}

type UpdateQuestionRequest struct {
	QuestionText string `json:"question_text"`
}

type ReorderRequest struct {
	QuestionOrders []services.QuestionOrder `json:"question_orders"`
}

func (h *QuestionHandler) Create(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Create", "invalid request body", err))
		return
	}

	q, err := h.svc.Create(c.Request.Context(), req.RoleID, req.QuestionText, req.QuestionOrder)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *QuestionHandler) ListByRole(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil || roleID <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.ListByRole", "invalid role id", err))
		return
	}

	qs, err := h.svc.ListByRole(c.Request.Context(), roleID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

// ListByToken is the candidate-facing question fetch.
func (h *QuestionHandler) ListByToken(c *gin.Context) {
	qs, err := h.svc.ListByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	questionID, err := strconv.ParseInt(c.Param("question_id"), 10, 64)
	if err != nil || questionID <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Update", "invalid question id", err))
		return
	}

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Update", "invalid request body", err))
		return
	}

	q, err := h.svc.UpdateText(c.Request.Context(), questionID, req.QuestionText)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	questionID, err := strconv.ParseInt(c.Param("question_id"), 10, 64)
	if err != nil || questionID <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Delete", "invalid question id", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), questionID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "question deleted"})
}

func (h *QuestionHandler) Reorder(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil || roleID <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Reorder", "invalid role id", err))
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Reorder", "invalid request body", err))
		return
	}

	qs, err := h.svc.Reorder(c.Request.Context(), roleID, req.QuestionOrders)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/utils"
)

type RoleHandler struct {
	svc services.RoleService
}

func NewRoleHandler(svc services.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

type CreateRoleRequest struct {
	ID    *int64 `json:"id,omitempty"`
	Title string `json:"title"`
}

func (h *RoleHandler) Create(c *gin.Context) {
	interviewerID, ok := requireInterviewer(c)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RoleHandler.Create", "invalid request body", err))
		return
	}

	role, err := h.svc.Create(c.Request.Context(), req.ID, interviewerID, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *RoleHandler) ListAll(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	roles, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *RoleHandler) ListByInterviewer(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RoleHandler.ListByInterviewer", "invalid interviewer id", err))
		return
	}

	roles, err := h.svc.ListByInterviewer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// ListMine lists the authenticated interviewer's own roles.
func (h *RoleHandler) ListMine(c *gin.Context) {
	interviewerID, ok := requireInterviewer(c)
	if !ok {
		return
	}

	roles, err := h.svc.ListByInterviewer(c.Request.Context(), interviewerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

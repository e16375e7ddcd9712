package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/utils"
)

type InterviewHandler struct {
	invites services.InviteService
	links   services.LinkService
}

func NewInterviewHandler(invites services.InviteService, links services.LinkService) *InterviewHandler {
	return &InterviewHandler{invites: invites, links: links}
}

type InviteRequest struct {
	RoleID         int64  `json:"role_id"`
	CandidateEmail string `json:"candidate_email"`
	ExpiresInDays  *int   `json:"expires_in_days,omitempty"`
}

type ValidateCandidateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *InterviewHandler) Invite(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Invite", "invalid request body", err))
		return
	}

	result, err := h.invites.Invite(c.Request.Context(), req.RoleID, req.CandidateEmail, req.ExpiresInDays)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetLink is the candidate's first touch: it returns link metadata without
// consuming the token.
func (h *InterviewHandler) GetLink(c *gin.Context) {
	link, err := h.links.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *InterviewHandler) ValidateCandidate(c *gin.Context) {
	var req ValidateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.ValidateCandidate", "invalid request body", err))
		return
	}

	link, err := h.invites.ValidateCandidate(c.Request.Context(), c.Param("token"), req.Name, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "link": link})
}

func (h *InterviewHandler) MarkUsed(c *gin.Context) {
	link, err := h.invites.MarkUsed(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *InterviewHandler) ListLinksByRole(c *gin.Context) {
	if _, ok := requireInterviewer(c); !ok {
		return
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil || roleID <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.ListLinksByRole", "invalid role id", err))
		return
	}

	rows, err := h.invites.ListLinksByRole(c.Request.Context(), roleID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

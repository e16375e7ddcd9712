package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/utils"
)

type AuthHandler struct {
	svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OAuthUpsertRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Register", "invalid request body", err))
		return
	}

	in, token, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse{ID: in.ID, Name: in.Name, Email: in.Email, Token: token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Login", "invalid request body", err))
		return
	}

	in, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{ID: in.ID, Name: in.Name, Email: in.Email, Token: token})
}

// OAuthUpsert exchanges a provider-verified identity for a backend token.
func (h *AuthHandler) OAuthUpsert(c *gin.Context) {
	var req OAuthUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.OAuthUpsert", "invalid request body", err))
		return
	}

	in, token, err := h.svc.UpsertOAuth(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{ID: in.ID, Name: in.Name, Email: in.Email, Token: token})
}

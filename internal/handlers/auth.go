package handlers

import (
	"github.com/bandhall/bandhall/internal/middleware"
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth        *services.AuthService
	ldapEnabled bool
}

func NewAuthHandler(auth *services.AuthService, ldapEnabled bool) *AuthHandler {
	return &AuthHandler{auth: auth, ldapEnabled: ldapEnabled}
}

// Register handles account creation
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.auth.Register(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, pair)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.auth.Login(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, pair)
}

// Refresh rotates a refresh token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.auth.Refresh(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, pair)
}

// Me returns the current user's profile
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// UpdateMe updates the current user's profile
// PUT /api/auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.auth.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// Logout revokes the caller's refresh tokens
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "logged out"})
}

// Config returns authentication configuration for the login page
// GET /api/auth/config
func (h *AuthHandler) Config(c *gin.Context) {
	response.Success(c, gin.H{"ldapEnabled": h.ldapEnabled})
}

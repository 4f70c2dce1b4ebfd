package handler

import (
	"net/http"

	"event-ticketing/internal/usecase/auth"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes mounts the auth endpoints on group. requireAuth guards the
// endpoints that act on the current session.
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	group.GET("", h.Status)
	group.POST("/signup", h.Signup)
	group.POST("/login", h.Login)
	group.POST("/refresh-token", h.RefreshToken)
	group.POST("/forgot-password", h.ForgotPassword)
	group.POST("/verify-otp", h.VerifyOTP)
	group.POST("/reset-password", h.ResetPassword)

	group.POST("/logout", requireAuth, h.Logout)
	group.GET("/me", requireAuth, h.Me)
	group.POST("/change-password", requireAuth, h.ChangePassword)
}

func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Auth service is running"})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	if err := h.service.Register(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "User created successfully", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req, requestContext(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessWithFields(c, http.StatusOK, "Login successful", authBody(result))
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	result, err := h.service.RefreshTokens(c.Request.Context(), &req, requestContext(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessWithFields(c, http.StatusOK, "Token refreshed", authBody(result))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), p); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	view, err := h.service.Me(c.Request.Context(), p)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessWithFields(c, http.StatusOK, "", gin.H{"user": view})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), p, &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req auth.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "A reset code has been sent", nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req auth.VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	result, err := h.service.VerifyResetCode(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessWithFields(c, http.StatusOK, "Code verified", gin.H{
		"resetToken": result.ResetToken,
		"expiresAt":  result.ExpiresAt,
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req auth.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset successfully", nil)
}

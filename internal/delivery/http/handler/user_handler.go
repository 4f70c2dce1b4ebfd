package handler

import (
	"net/http"

	"event-ticketing/internal/usecase/user"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *user.Service
}

func NewUserHandler(service *user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes expects group to be behind AuthMiddleware.
func (h *UserHandler) RegisterRoutes(group *gin.RouterGroup) {
	profile := group.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.PUT("/avatar", h.UploadAvatar)
	}
	group.GET("/sessions", h.ListSessions)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), p.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), p.UserID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile updated successfully", profile)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "avatar file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "avatar file could not be read")
		return
	}
	defer file.Close()

	profile, err := h.service.UploadAvatar(c.Request.Context(), p.UserID, file, header.Size)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Avatar updated successfully", profile)
}

func (h *UserHandler) ListSessions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), p.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", sessions)
}

package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/middleware"
	"event-ticketing/internal/usecase/event"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventHandler struct {
	service *event.Service
}

func NewEventHandler(service *event.Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterRoutes mounts the event endpoints. optionalAuth lets owners see
// their drafts on the public detail route.
func (h *EventHandler) RegisterRoutes(group *gin.RouterGroup, requireAuth, optionalAuth gin.HandlerFunc) {
	group.GET("", h.List)
	group.GET("/my/events", requireAuth, middleware.HostOnly(), h.MyEvents)
	group.GET("/:id", optionalAuth, h.Get)

	host := group.Group("", requireAuth, middleware.HostOnly())
	{
		host.POST("", h.Create)
		host.PUT("/:id", h.Update)
		host.DELETE("/:id", h.Delete)
		host.POST("/:id/cancel", h.Cancel)
		host.POST("/:id/publish", h.Publish)
		host.POST("/:id/tiers", h.AddTier)
	}
}

func (h *EventHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req event.CreateEventRequest
	var covers []event.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			invalidBody(c)
			return
		}
		if err := json.Unmarshal([]byte(firstValue(form.Value["data"])), &req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "data field must be valid JSON")
			return
		}

		files, err := openUploads(form.File["coverImages"])
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "cover image could not be read")
			return
		}
		defer closeAll(files)
		covers = toUploads(form.File["coverImages"], files)
	} else if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), p, &req, covers)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Event created successfully", resp)
}

func (h *EventHandler) List(c *gin.Context) {
	var q event.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.service.List(c.Request.Context(), &q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       resp.Data,
		"pagination": resp.Pagination,
	})
}

func (h *EventHandler) MyEvents(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var q event.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.service.MyEvents(c.Request.Context(), p, &q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       resp.Data,
		"pagination": resp.Pagination,
	})
}

func (h *EventHandler) Get(c *gin.Context) {
	var viewer *domainUser.Principal
	if p, ok := middleware.CurrentPrincipal(c); ok {
		viewer = &p
	}

	resp, err := h.service.Get(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *EventHandler) Update(c *gin.Context) {
	p, id, ok := ownerRequest(c)
	if !ok {
		return
	}

	var req event.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event updated successfully", resp)
}

func (h *EventHandler) Delete(c *gin.Context) {
	p, id, ok := ownerRequest(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event deleted successfully", nil)
}

func (h *EventHandler) Cancel(c *gin.Context) {
	p, id, ok := ownerRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event cancelled successfully", resp)
}

func (h *EventHandler) Publish(c *gin.Context) {
	p, id, ok := ownerRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.Publish(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event published successfully", resp)
}

func (h *EventHandler) AddTier(c *gin.Context) {
	p, id, ok := ownerRequest(c)
	if !ok {
		return
	}

	var req event.TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	resp, err := h.service.AddTier(c.Request.Context(), p, id, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Ticket tier added successfully", resp)
}

func ownerRequest(c *gin.Context) (domainUser.Principal, uuid.UUID, bool) {
	p, ok := principal(c)
	if !ok {
		return domainUser.Principal{}, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid event ID")
		return domainUser.Principal{}, uuid.Nil, false
	}
	return p, id, true
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return "{}"
	}
	return values[0]
}

func openUploads(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func toUploads(headers []*multipart.FileHeader, files []multipart.File) []event.Upload {
	uploads := make([]event.Upload, 0, len(files))
	for i, f := range files {
		uploads = append(uploads, event.Upload{Reader: io.Reader(f), Size: headers[i].Size})
	}
	return uploads
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

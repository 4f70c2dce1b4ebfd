package handler

import (
	"net/http"

	"event-ticketing/internal/usecase/ticket"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service *ticket.Service
}

func NewTicketHandler(service *ticket.Service) *TicketHandler {
	return &TicketHandler{service: service}
}

// RegisterRoutes expects group to be behind AuthMiddleware.
func (h *TicketHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/my-tickets", h.ListMine)
	group.GET("/my-tickets/:ticketId", h.GetMine)
	group.GET("/stats", h.Stats)
}

func (h *TicketHandler) ListMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var q ticket.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.service.ListMine(c.Request.Context(), p.UserID, &q)
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

func (h *TicketHandler) GetMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	resp, err := h.service.GetMine(c.Request.Context(), p.UserID, c.Param("ticketId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *TicketHandler) Stats(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), p.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", stats)
}

package ticket

import (
	"time"

	domainTicket "event-ticketing/internal/domain/ticket"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
)

// ListQuery carries the "my tickets" query string.
type ListQuery struct {
	Status      string `form:"status" validate:"omitempty,oneof=ACTIVE USED REFUNDED CANCELLED EXPIRED"`
	EventTiming string `form:"eventTiming" validate:"omitempty,oneof=upcoming past today"`
	EventStatus string `form:"eventStatus" validate:"omitempty,oneof=DRAFT PUBLISHED CANCELLED COMPLETED"`
	Search      string `form:"search" validate:"omitempty,max=100"`
	SortBy      string `form:"sortBy" validate:"omitempty,oneof=createdAt issuedAt eventStartDate eventEndDate"`
	SortOrder   string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	Limit       int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

type EventSummaryResponse struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	CoverImage      *string    `json:"coverImage,omitempty"`
	StartDateTime   time.Time  `json:"startDateTime"`
	EndDateTime     time.Time  `json:"endDateTime"`
	VenueName       string     `json:"venueName"`
	VenueAddress    string     `json:"venueAddress"`
	City            *string    `json:"city,omitempty"`
	IsOnline        bool       `json:"isOnline"`
	Status          string     `json:"status"`
	RefundableUntil *time.Time `json:"refundableUntil,omitempty"`
}

type TicketResponse struct {
	ID             uuid.UUID            `json:"id"`
	TicketCode     string               `json:"ticketCode"`
	Status         string               `json:"status"`
	TierID         uuid.UUID            `json:"ticketTierId"`
	TierName       string               `json:"ticketTierName"`
	PricePaidCents int64                `json:"pricePaidCents"`
	Currency       string               `json:"currency"`
	IssuedAt       time.Time            `json:"issuedAt"`
	CheckedInAt    *time.Time           `json:"checkedInAt,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	Event          EventSummaryResponse `json:"event"`

	EventTimingStatus string `json:"eventTimingStatus"`
	IsCheckedIn       bool   `json:"isCheckedIn"`
	CanCheckIn        bool   `json:"canCheckIn"`
}

// TicketDetailResponse adds refund eligibility to a listed ticket.
type TicketDetailResponse struct {
	TicketResponse
	CanRefund bool `json:"canRefund"`
}

type TicketListResponse struct {
	Data       []*TicketResponse `json:"data"`
	Pagination utils.Pagination  `json:"pagination"`
}

func ToTicketResponse(t *domainTicket.Ticket, now time.Time) *TicketResponse {
	summary := EventSummaryResponse{
		ID:              t.Event.ID,
		Title:           t.Event.Title,
		Slug:            t.Event.Slug,
		StartDateTime:   t.Event.StartDateTime,
		EndDateTime:     t.Event.EndDateTime,
		VenueName:       t.Event.VenueName,
		VenueAddress:    t.Event.VenueAddress,
		City:            t.Event.City,
		IsOnline:        t.Event.IsOnline,
		Status:          string(t.Event.Status),
		RefundableUntil: t.Event.RefundableUntil,
	}
	if len(t.Event.CoverImages) > 0 {
		summary.CoverImage = &t.Event.CoverImages[0]
	}

	return &TicketResponse{
		ID:                t.ID,
		TicketCode:        t.TicketCode,
		Status:            string(t.Status),
		TierID:            t.TicketTierID,
		TierName:          t.TierName,
		PricePaidCents:    t.PricePaidCents,
		Currency:          t.Currency,
		IssuedAt:          t.IssuedAt,
		CheckedInAt:       t.CheckedInAt,
		CreatedAt:         t.CreatedAt,
		Event:             summary,
		EventTimingStatus: string(t.Timing(now)),
		IsCheckedIn:       t.IsCheckedIn(),
		CanCheckIn:        t.CanCheckIn(now),
	}
}

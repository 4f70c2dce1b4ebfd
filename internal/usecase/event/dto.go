package event

import (
	"io"
	"time"

	domainEvent "event-ticketing/internal/domain/event"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
)

const maxCoverImages = 5

// Request DTOs
type TierRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	PriceCents  int64   `json:"priceCents" validate:"min=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3,alpha"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	IsVisible   *bool   `json:"isVisible"`
	SortOrder   int     `json:"sortOrder" validate:"min=0"`
}

type CreateEventRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"required,min=10"`
	Category    string   `json:"category" validate:"required,oneof=MUSIC SPORTS ARTS TECHNOLOGY BUSINESS FOOD EDUCATION ENTERTAINMENT HEALTH NIGHTLIFE OTHER"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	CoverImages []string `json:"coverImages" validate:"omitempty,max=5,dive,url"`

	StartDateTime time.Time `json:"startDateTime" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" validate:"required"`
	Timezone      string    `json:"timezone" validate:"omitempty,timezone"`

	IsOnline     bool     `json:"isOnline"`
	StreamingURL *string  `json:"streamingUrl" validate:"omitempty,url"`
	VenueName    string   `json:"venueName" validate:"required_without=IsOnline,max=255"`
	VenueAddress string   `json:"venueAddress" validate:"required_without=IsOnline"`
	City         *string  `json:"city" validate:"omitempty,max=100"`
	State        *string  `json:"state" validate:"omitempty,max=100"`
	Country      string   `json:"country" validate:"omitempty,max=100"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`

	TotalCapacity       *int   `json:"totalCapacity" validate:"omitempty,min=1"`
	AccessType          string `json:"accessType" validate:"omitempty,oneof=PUBLIC INVITE_ONLY PRIVATE"`
	AgeRestriction      *int   `json:"ageRestriction" validate:"omitempty,min=0,max=100"`
	TicketLimitPerOrder int    `json:"ticketLimitPerOrder" validate:"omitempty,min=1,max=100"`

	CheckInMethod      string     `json:"checkInMethod" validate:"omitempty,oneof=QR_SCAN MANUAL KIOSK"`
	QRScanMode         string     `json:"qrScanMode" validate:"omitempty,oneof=SINGLE_USE MULTI_USE"`
	CheckInWindowStart *time.Time `json:"checkInWindowStart"`
	CheckInWindowEnd   *time.Time `json:"checkInWindowEnd"`

	RefundPolicy    *string    `json:"refundPolicy" validate:"omitempty,max=2000"`
	RefundableUntil *time.Time `json:"refundableUntil"`
	VisibilityDate  *time.Time `json:"visibilityDate"`

	Status      string        `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
	TicketTiers []TierRequest `json:"ticketTiers" validate:"omitempty,dive"`
}

type UpdateEventRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string   `json:"description" validate:"omitempty,min=10"`
	Category    *string   `json:"category" validate:"omitempty,oneof=MUSIC SPORTS ARTS TECHNOLOGY BUSINESS FOOD EDUCATION ENTERTAINMENT HEALTH NIGHTLIFE OTHER"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	CoverImages *[]string `json:"coverImages" validate:"omitempty,min=1,max=5,dive,url"`

	StartDateTime *time.Time `json:"startDateTime"`
	EndDateTime   *time.Time `json:"endDateTime"`
	Timezone      *string    `json:"timezone" validate:"omitempty,timezone"`

	IsOnline     *bool    `json:"isOnline"`
	StreamingURL *string  `json:"streamingUrl" validate:"omitempty,url"`
	VenueName    *string  `json:"venueName" validate:"omitempty,min=1,max=255"`
	VenueAddress *string  `json:"venueAddress" validate:"omitempty,min=1"`
	City         *string  `json:"city" validate:"omitempty,max=100"`
	State        *string  `json:"state" validate:"omitempty,max=100"`
	Country      *string  `json:"country" validate:"omitempty,max=100"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`

	TotalCapacity       *int    `json:"totalCapacity" validate:"omitempty,min=1"`
	AccessType          *string `json:"accessType" validate:"omitempty,oneof=PUBLIC INVITE_ONLY PRIVATE"`
	AgeRestriction      *int    `json:"ageRestriction" validate:"omitempty,min=0,max=100"`
	TicketLimitPerOrder *int    `json:"ticketLimitPerOrder" validate:"omitempty,min=1,max=100"`

	CheckInMethod      *string    `json:"checkInMethod" validate:"omitempty,oneof=QR_SCAN MANUAL KIOSK"`
	QRScanMode         *string    `json:"qrScanMode" validate:"omitempty,oneof=SINGLE_USE MULTI_USE"`
	CheckInWindowStart *time.Time `json:"checkInWindowStart"`
	CheckInWindowEnd   *time.Time `json:"checkInWindowEnd"`

	RefundPolicy    *string    `json:"refundPolicy" validate:"omitempty,max=2000"`
	RefundableUntil *time.Time `json:"refundableUntil"`
	VisibilityDate  *time.Time `json:"visibilityDate"`

	Status *string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED CANCELLED COMPLETED"`
}

// ListQuery carries the listing query string.
type ListQuery struct {
	Category      string     `form:"category" json:"category" validate:"omitempty,oneof=MUSIC SPORTS ARTS TECHNOLOGY BUSINESS FOOD EDUCATION ENTERTAINMENT HEALTH NIGHTLIFE OTHER"`
	Status        string     `form:"status" json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED CANCELLED COMPLETED"`
	AccessType    string     `form:"accessType" json:"accessType" validate:"omitempty,oneof=PUBLIC INVITE_ONLY PRIVATE"`
	City          string     `form:"city" json:"city"`
	Country       string     `form:"country" json:"country"`
	IsFeatured    *bool      `form:"isFeatured" json:"isFeatured"`
	IsOnline      *bool      `form:"isOnline" json:"isOnline"`
	StartDateFrom *time.Time `form:"startDateFrom" json:"startDateFrom" time_format:"2006-01-02"`
	StartDateTo   *time.Time `form:"startDateTo" json:"startDateTo" time_format:"2006-01-02"`
	Search        string     `form:"search" json:"search" validate:"omitempty,max=100"`
	SortBy        string     `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=startDateTime createdAt viewCount ticketsSold"`
	SortOrder     string     `form:"sortOrder" json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page          int        `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit         int        `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

// Upload is one image file attached to a request.
type Upload struct {
	Reader io.Reader
	Size   int64
}

// Response DTOs
type TierResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	Quantity    int       `json:"quantity"`
	Remaining   int       `json:"remaining"`
	IsVisible   bool      `json:"isVisible"`
	SortOrder   int       `json:"sortOrder"`
}

type EventResponse struct {
	ID          uuid.UUID `json:"id"`
	HostID      uuid.UUID `json:"hostId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CoverImages []string  `json:"coverImages"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`

	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Timezone      string    `json:"timezone"`

	IsOnline     bool     `json:"isOnline"`
	StreamingURL *string  `json:"streamingUrl,omitempty"`
	VenueName    string   `json:"venueName"`
	VenueAddress string   `json:"venueAddress"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	TotalCapacity       *int   `json:"totalCapacity,omitempty"`
	AccessType          string `json:"accessType"`
	AgeRestriction      *int   `json:"ageRestriction,omitempty"`
	TicketLimitPerOrder int    `json:"ticketLimitPerOrder"`

	CheckInMethod      string     `json:"checkInMethod"`
	QRScanMode         string     `json:"qrScanMode"`
	CheckInWindowStart *time.Time `json:"checkInWindowStart,omitempty"`
	CheckInWindowEnd   *time.Time `json:"checkInWindowEnd,omitempty"`

	RefundPolicy    *string    `json:"refundPolicy,omitempty"`
	RefundableUntil *time.Time `json:"refundableUntil,omitempty"`

	Status             string     `json:"status"`
	AllowedTransitions []string   `json:"allowedTransitions"`
	VisibilityDate     *time.Time `json:"visibilityDate,omitempty"`
	IsFeatured         bool       `json:"isFeatured"`
	ViewCount          int        `json:"viewCount"`
	TicketsSold        int        `json:"ticketsSold"`
	PublishedAt        *time.Time `json:"publishedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	TicketTiers []TierResponse `json:"ticketTiers"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type EventListResponse struct {
	Data       []*EventResponse `json:"data"`
	Pagination utils.Pagination `json:"pagination"`
}

func ToTierResponse(t *domainEvent.TicketTier) TierResponse {
	return TierResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		PriceCents:  t.PriceCents,
		Currency:    t.Currency,
		Quantity:    t.Quantity,
		Remaining:   t.Remaining(),
		IsVisible:   t.IsVisible,
		SortOrder:   t.SortOrder,
	}
}

func ToEventResponse(e *domainEvent.Event) *EventResponse {
	tiers := make([]TierResponse, 0, len(e.TicketTiers))
	for i := range e.TicketTiers {
		tiers = append(tiers, ToTierResponse(&e.TicketTiers[i]))
	}

	allowed := make([]string, 0, 2)
	for _, s := range domainEvent.GetAllowedTransitions(e.Status) {
		allowed = append(allowed, string(s))
	}

	return &EventResponse{
		ID:                  e.ID,
		HostID:              e.HostID,
		Title:               e.Title,
		Slug:                e.Slug,
		Description:         e.Description,
		CoverImages:         nonNil(e.CoverImages),
		Category:            string(e.Category),
		Tags:                nonNil(e.Tags),
		StartDateTime:       e.StartDateTime,
		EndDateTime:         e.EndDateTime,
		Timezone:            e.Timezone,
		IsOnline:            e.IsOnline,
		StreamingURL:        e.StreamingURL,
		VenueName:           e.VenueName,
		VenueAddress:        e.VenueAddress,
		City:                e.City,
		State:               e.State,
		Country:             e.Country,
		Latitude:            e.Latitude,
		Longitude:           e.Longitude,
		TotalCapacity:       e.TotalCapacity,
		AccessType:          string(e.AccessType),
		AgeRestriction:      e.AgeRestriction,
		TicketLimitPerOrder: e.TicketLimitPerOrder,
		CheckInMethod:       string(e.CheckInMethod),
		QRScanMode:          string(e.QRScanMode),
		CheckInWindowStart:  e.CheckInWindowStart,
		CheckInWindowEnd:    e.CheckInWindowEnd,
		RefundPolicy:        e.RefundPolicy,
		RefundableUntil:     e.RefundableUntil,
		Status:              string(e.Status),
		AllowedTransitions:  allowed,
		VisibilityDate:      e.VisibilityDate,
		IsFeatured:          e.IsFeatured,
		ViewCount:           e.ViewCount,
		TicketsSold:         e.TicketsSold,
		PublishedAt:         e.PublishedAt,
		CancelledAt:         e.CancelledAt,
		TicketTiers:         tiers,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

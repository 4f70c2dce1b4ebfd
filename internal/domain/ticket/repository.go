package ticket

import (
	"context"
	"time"

	"event-ticketing/internal/domain/event"

	"github.com/google/uuid"
)

// TimingFilter restricts tickets by when their event happens.
type TimingFilter string

const (
	FilterUpcoming TimingFilter = "upcoming"
	FilterPast     TimingFilter = "past"
	FilterToday    TimingFilter = "today"
)

type SortField string

const (
	SortByCreatedAt      SortField = "createdAt"
	SortByIssuedAt       SortField = "issuedAt"
	SortByEventStartDate SortField = "eventStartDate"
	SortByEventEndDate   SortField = "eventEndDate"
)

type ListFilter struct {
	UserID      uuid.UUID
	Status      *Status
	Timing      *TimingFilter
	EventStatus *event.Status
	Search      string
	Now         time.Time

	SortBy   SortField
	SortDesc bool
	Page     int
	Limit    int
}

type Repository interface {
	ListForUser(ctx context.Context, filter ListFilter) ([]*Ticket, int64, error)
	// GetForUser looks a ticket up by id or ticket code, scoped to its owner.
	GetForUser(ctx context.Context, userID uuid.UUID, idOrCode string) (*Ticket, error)
	StatsForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*Stats, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SortField string

const (
	SortByStartDateTime SortField = "startDateTime"
	SortByCreatedAt     SortField = "createdAt"
	SortByViewCount     SortField = "viewCount"
	SortByTicketsSold   SortField = "ticketsSold"
)

// ListFilter narrows event listings. Nil fields are not applied.
type ListFilter struct {
	HostID        *uuid.UUID
	Category      *Category
	Status        *Status
	AccessType    *AccessType
	City          *string
	Country       *string
	IsFeatured    *bool
	IsOnline      *bool
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	Search        string

	SortBy   SortField
	SortDesc bool
	Page     int
	Limit    int

	VisibleTiersOnly bool
}

type Repository interface {
	// Create inserts the event together with its TicketTiers.
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	// GetByIDOrSlug treats key as an id when it parses as a uuid.
	GetByIDOrSlug(ctx context.Context, key string) (*Event, error)
	List(ctx context.Context, filter ListFilter) ([]*Event, int64, error)
	Update(ctx context.Context, e *Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	AddTier(ctx context.Context, tier *TicketTier) error
	// CompleteEnded marks published events that ended before cutoff as
	// completed and returns them.
	CompleteEnded(ctx context.Context, cutoff time.Time) ([]*Event, error)
}

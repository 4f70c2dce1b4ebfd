package ticket

import (
	"time"

	"event-ticketing/internal/domain/event"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusUsed      Status = "USED"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Timing describes where an event sits relative to now.
type Timing string

const (
	TimingUpcoming Timing = "upcoming"
	TimingOngoing  Timing = "ongoing"
	TimingPast     Timing = "past"
)

// EventSummary is the slice of the event a ticket listing needs.
type EventSummary struct {
	ID              uuid.UUID
	Title           string
	Slug            string
	CoverImages     []string
	StartDateTime   time.Time
	EndDateTime     time.Time
	VenueName       string
	VenueAddress    string
	City            *string
	IsOnline        bool
	Status          event.Status
	RefundableUntil *time.Time
}

type Ticket struct {
	ID             uuid.UUID
	EventID        uuid.UUID
	TicketTierID   uuid.UUID
	UserID         uuid.UUID
	TicketCode     string
	Status         Status
	PricePaidCents int64
	Currency       string
	IssuedAt       time.Time
	CheckedInAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	TierName string
	Event    EventSummary
}

func TimingOf(start, end, now time.Time) Timing {
	switch {
	case now.Before(start):
		return TimingUpcoming
	case now.After(end):
		return TimingPast
	default:
		return TimingOngoing
	}
}

func (t *Ticket) Timing(now time.Time) Timing {
	return TimingOf(t.Event.StartDateTime, t.Event.EndDateTime, now)
}

func (t *Ticket) IsCheckedIn() bool {
	return t.CheckedInAt != nil || t.Status == StatusUsed
}

func (t *Ticket) CanCheckIn(now time.Time) bool {
	return t.Status == StatusActive &&
		t.Event.Status == event.StatusPublished &&
		t.Timing(now) != TimingPast
}

func (t *Ticket) CanRefund(now time.Time) bool {
	return t.Status == StatusActive &&
		t.Event.RefundableUntil != nil &&
		now.Before(*t.Event.RefundableUntil)
}

// Stats summarises a user's tickets.
type Stats struct {
	TotalTickets    int64 `json:"totalTickets"`
	UpcomingTickets int64 `json:"upcomingTickets"`
	PastTickets     int64 `json:"pastTickets"`
	UsedTickets     int64 `json:"usedTickets"`
	ActiveTickets   int64 `json:"activeTickets"`
	TotalSpentCents int64 `json:"totalSpentCents"`
}

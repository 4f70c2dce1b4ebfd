package memory

import (
	"context"
	"sync"
	"time"

	domainTicket "event-ticketing/internal/domain/ticket"

	"github.com/google/uuid"
)

// TicketStore is an in-memory domainTicket.Repository. List applies the
// status filter and records the last filter it saw.
type TicketStore struct {
	mu         sync.Mutex
	tickets    []*domainTicket.Ticket
	LastFilter domainTicket.ListFilter
}

func NewTicketStore(tickets ...*domainTicket.Ticket) *TicketStore {
	return &TicketStore{tickets: tickets}
}

func (s *TicketStore) ListForUser(_ context.Context, f domainTicket.ListFilter) ([]*domainTicket.Ticket, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastFilter = f

	var out []*domainTicket.Ticket
	for _, t := range s.tickets {
		if t.UserID != f.UserID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (s *TicketStore) GetForUser(_ context.Context, userID uuid.UUID, idOrCode string) (*domainTicket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.UserID == userID && (t.ID.String() == idOrCode || t.TicketCode == idOrCode) {
			c := *t
			return &c, nil
		}
	}
	return nil, domainTicket.ErrTicketNotFound
}

func (s *TicketStore) StatsForUser(_ context.Context, userID uuid.UUID, now time.Time) (*domainTicket.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &domainTicket.Stats{}
	for _, t := range s.tickets {
		if t.UserID != userID {
			continue
		}
		stats.TotalTickets++
		switch t.Timing(now) {
		case domainTicket.TimingUpcoming:
			stats.UpcomingTickets++
		case domainTicket.TimingPast:
			stats.PastTickets++
		}
		switch t.Status {
		case domainTicket.StatusUsed:
			stats.UsedTickets++
		case domainTicket.StatusActive:
			stats.ActiveTickets++
		}
		if t.Status != domainTicket.StatusRefunded && t.Status != domainTicket.StatusCancelled {
			stats.TotalSpentCents += t.PricePaidCents
		}
	}
	return stats, nil
}

func (s *TicketStore) CountForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tickets {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

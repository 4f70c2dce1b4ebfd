package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainEvent "event-ticketing/internal/domain/event"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
)

// EventStore is an in-memory domainEvent.Repository. List honours the
// status, host and search filters only.
type EventStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*domainEvent.Event
	// CreateErrs are returned by successive Create calls before storing.
	CreateErrs []error
}

func NewEventStore() *EventStore {
	return &EventStore{events: make(map[uuid.UUID]*domainEvent.Event)}
}

func cloneEvent(e *domainEvent.Event) *domainEvent.Event {
	c := *e
	c.CoverImages = append([]string(nil), e.CoverImages...)
	c.Tags = append([]string(nil), e.Tags...)
	c.TicketTiers = append([]domainEvent.TicketTier(nil), e.TicketTiers...)
	return &c
}

func (s *EventStore) Create(_ context.Context, e *domainEvent.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.CreateErrs) > 0 {
		err := s.CreateErrs[0]
		s.CreateErrs = s.CreateErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range s.events {
		if existing.Slug == e.Slug {
			return domainEvent.ErrSlugTaken
		}
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	for i := range e.TicketTiers {
		if e.TicketTiers[i].ID == uuid.Nil {
			e.TicketTiers[i].ID = uuid.New()
		}
		e.TicketTiers[i].EventID = e.ID
	}
	s.events[e.ID] = cloneEvent(e)
	return nil
}

// Put stores e as is.
func (s *EventStore) Put(e *domainEvent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = cloneEvent(e)
}

func (s *EventStore) Get(id uuid.UUID) *domainEvent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		return cloneEvent(e)
	}
	return nil
}

func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *EventStore) GetByID(_ context.Context, id uuid.UUID) (*domainEvent.Event, error) {
	if e := s.Get(id); e != nil {
		return e, nil
	}
	return nil, domainEvent.ErrEventNotFound
}

func (s *EventStore) GetByIDOrSlug(ctx context.Context, key string) (*domainEvent.Event, error) {
	if id, err := uuid.Parse(key); err == nil {
		return s.GetByID(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Slug == key {
			return cloneEvent(e), nil
		}
	}
	return nil, domainEvent.ErrEventNotFound
}

func (s *EventStore) List(_ context.Context, f domainEvent.ListFilter) ([]*domainEvent.Event, int64, error) {
	s.mu.Lock()
	var matched []*domainEvent.Event
	for _, e := range s.events {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.HostID != nil && e.HostID != *f.HostID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
			continue
		}
		c := cloneEvent(e)
		if f.VisibleTiersOnly {
			tiers := c.TicketTiers[:0]
			for _, t := range c.TicketTiers {
				if t.IsVisible {
					tiers = append(tiers, t)
				}
			}
			c.TicketTiers = tiers
		}
		matched = append(matched, c)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if f.SortDesc {
			return matched[i].StartDateTime.After(matched[j].StartDateTime)
		}
		return matched[i].StartDateTime.Before(matched[j].StartDateTime)
	})

	total := int64(len(matched))
	page, limit := utils.NormalizePage(f.Page, f.Limit)
	offset := utils.Offset(page, limit)
	if offset >= len(matched) {
		return []*domainEvent.Event{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *EventStore) Update(_ context.Context, e *domainEvent.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return domainEvent.ErrEventNotFound
	}
	s.events[e.ID] = cloneEvent(e)
	return nil
}

func (s *EventStore) UpdateStatus(_ context.Context, id uuid.UUID, status domainEvent.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return domainEvent.ErrEventNotFound
	}
	e.Status = status
	e.UpdatedAt = at
	switch status {
	case domainEvent.StatusPublished:
		e.PublishedAt = &at
	case domainEvent.StatusCancelled:
		e.CancelledAt = &at
	}
	return nil
}

func (s *EventStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return domainEvent.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *EventStore) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return domainEvent.ErrEventNotFound
	}
	e.ViewCount++
	return nil
}

func (s *EventStore) AddTier(_ context.Context, tier *domainEvent.TicketTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[tier.EventID]
	if !ok {
		return domainEvent.ErrEventNotFound
	}
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	e.TicketTiers = append(e.TicketTiers, *tier)
	return nil
}

func (s *EventStore) CompleteEnded(_ context.Context, cutoff time.Time) ([]*domainEvent.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var done []*domainEvent.Event
	for _, e := range s.events {
		if e.Status == domainEvent.StatusPublished && e.EndDateTime.Before(cutoff) {
			e.Status = domainEvent.StatusCompleted
			e.UpdatedAt = cutoff
			done = append(done, cloneEvent(e))
		}
	}
	return done, nil
}

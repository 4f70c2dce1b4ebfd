package ticket

import (
	"context"
	"errors"
	"testing"
	"time"

	domainEvent "event-ticketing/internal/domain/event"
	domainTicket "event-ticketing/internal/domain/ticket"
	"event-ticketing/internal/security"
	"event-ticketing/internal/testutil/memory"
	appErrors "event-ticketing/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() security.Clock {
	return func() time.Time { return now }
}

func newTicket(userID uuid.UUID, code string, status domainTicket.Status, start time.Time) *domainTicket.Ticket {
	return &domainTicket.Ticket{
		ID:             uuid.New(),
		EventID:        uuid.New(),
		TicketTierID:   uuid.New(),
		UserID:         userID,
		TicketCode:     code,
		Status:         status,
		PricePaidCents: 500000,
		Currency:       "NGN",
		IssuedAt:       now.Add(-48 * time.Hour),
		TierName:       "Regular",
		Event: domainTicket.EventSummary{
			Title:         "Summer Jam",
			Slug:          "summer-jam-1",
			CoverImages:   []string{"https://cdn.test/events/1.png"},
			StartDateTime: start,
			EndDateTime:   start.Add(4 * time.Hour),
			Status:        domainEvent.StatusPublished,
		},
	}
}

func TestListMine_Enrichment(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	upcoming := newTicket(userID, "TKT-UP", domainTicket.StatusActive, now.Add(24*time.Hour))
	ongoing := newTicket(userID, "TKT-NOW", domainTicket.StatusActive, now.Add(-time.Hour))
	past := newTicket(userID, "TKT-OLD", domainTicket.StatusUsed, now.Add(-72*time.Hour))
	checkedAt := now.Add(-71 * time.Hour)
	past.CheckedInAt = &checkedAt
	cancelledEvent := newTicket(userID, "TKT-OFF", domainTicket.StatusActive, now.Add(24*time.Hour))
	cancelledEvent.Event.Status = domainEvent.StatusCancelled
	foreign := newTicket(uuid.New(), "TKT-X", domainTicket.StatusActive, now.Add(time.Hour))

	store := memory.NewTicketStore(upcoming, ongoing, past, cancelledEvent, foreign)
	svc := NewService(store, fixedClock())

	resp, err := svc.ListMine(context.Background(), userID, &ListQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 4)
	assert.Equal(t, int64(4), resp.Pagination.Total)

	byCode := map[string]*TicketResponse{}
	for _, r := range resp.Data {
		byCode[r.TicketCode] = r
	}

	assert.Equal(t, "upcoming", byCode["TKT-UP"].EventTimingStatus)
	assert.True(t, byCode["TKT-UP"].CanCheckIn)
	assert.False(t, byCode["TKT-UP"].IsCheckedIn)
	require.NotNil(t, byCode["TKT-UP"].Event.CoverImage)

	assert.Equal(t, "ongoing", byCode["TKT-NOW"].EventTimingStatus)
	assert.True(t, byCode["TKT-NOW"].CanCheckIn)

	assert.Equal(t, "past", byCode["TKT-OLD"].EventTimingStatus)
	assert.True(t, byCode["TKT-OLD"].IsCheckedIn)
	assert.False(t, byCode["TKT-OLD"].CanCheckIn)

	assert.False(t, byCode["TKT-OFF"].CanCheckIn)

	assert.Equal(t, domainTicket.SortByCreatedAt, store.LastFilter.SortBy)
	assert.True(t, store.LastFilter.SortDesc)
	assert.Equal(t, now, store.LastFilter.Now)
}

func TestListMine_Filters(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	store := memory.NewTicketStore(
		newTicket(userID, "A", domainTicket.StatusActive, now.Add(time.Hour)),
		newTicket(userID, "B", domainTicket.StatusRefunded, now.Add(time.Hour)),
	)
	svc := NewService(store, fixedClock())

	resp, err := svc.ListMine(context.Background(), userID, &ListQuery{
		Status:      "REFUNDED",
		EventTiming: "upcoming",
		EventStatus: "PUBLISHED",
		SortBy:      "eventStartDate",
		SortOrder:   "asc",
		Search:      "  jam ",
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "B", resp.Data[0].TicketCode)

	f := store.LastFilter
	require.NotNil(t, f.Timing)
	assert.Equal(t, domainTicket.FilterUpcoming, *f.Timing)
	require.NotNil(t, f.EventStatus)
	assert.Equal(t, domainEvent.StatusPublished, *f.EventStatus)
	assert.Equal(t, domainTicket.SortByEventStartDate, f.SortBy)
	assert.False(t, f.SortDesc)
	assert.Equal(t, "jam", f.Search)

	_, err = svc.ListMine(context.Background(), userID, &ListQuery{EventTiming: "someday"})
	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.CodeValidation, appErr.Code)
}

func TestGetMine(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	refundable := newTicket(userID, "TKT-REF", domainTicket.StatusActive, now.Add(72*time.Hour))
	until := now.Add(24 * time.Hour)
	refundable.Event.RefundableUntil = &until
	lapsed := newTicket(userID, "TKT-LATE", domainTicket.StatusActive, now.Add(72*time.Hour))
	gone := now.Add(-time.Hour)
	lapsed.Event.RefundableUntil = &gone

	svc := NewService(memory.NewTicketStore(refundable, lapsed), fixedClock())
	ctx := context.Background()

	byCode, err := svc.GetMine(ctx, userID, "TKT-REF")
	require.NoError(t, err)
	assert.True(t, byCode.CanRefund)
	assert.Equal(t, "upcoming", byCode.EventTimingStatus)

	byID, err := svc.GetMine(ctx, userID, lapsed.ID.String())
	require.NoError(t, err)
	assert.False(t, byID.CanRefund)

	_, err = svc.GetMine(ctx, uuid.New(), "TKT-REF")
	assert.ErrorIs(t, err, domainTicket.ErrTicketNotFound)
}

func TestStats(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	refunded := newTicket(userID, "R", domainTicket.StatusRefunded, now.Add(time.Hour))
	store := memory.NewTicketStore(
		newTicket(userID, "A", domainTicket.StatusActive, now.Add(time.Hour)),
		newTicket(userID, "U", domainTicket.StatusUsed, now.Add(-72*time.Hour)),
		refunded,
	)
	svc := NewService(store, fixedClock())

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTickets)
	assert.Equal(t, int64(2), stats.UpcomingTickets)
	assert.Equal(t, int64(1), stats.PastTickets)
	assert.Equal(t, int64(1), stats.UsedTickets)
	assert.Equal(t, int64(1), stats.ActiveTickets)
	assert.Equal(t, int64(1000000), stats.TotalSpentCents)

	count, err := svc.CountMine(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

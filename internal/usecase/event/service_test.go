package event

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domainEvent "event-ticketing/internal/domain/event"
	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/security"
	"event-ticketing/internal/testutil/memory"
	appErrors "event-ticketing/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	now     time.Time
	repo    *memory.EventStore
	images  *memory.ImageStore
	changes *memory.StatusLog
	svc     *Service
	host    domainUser.Principal
}

func newHarness() *harness {
	h := &harness{
		now:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		repo:    memory.NewEventStore(),
		images:  memory.NewImageStore(),
		changes: &memory.StatusLog{},
		host:    domainUser.Principal{UserID: uuid.New(), Role: domainUser.RoleHost},
	}
	h.svc = NewService(h.repo, h.images, h.changes, security.Clock(func() time.Time { return h.now }))
	return h
}

func cover() Upload {
	data := []byte("\x89PNG\r\n\x1a\nfake")
	return Upload{Reader: bytes.NewReader(data), Size: int64(len(data))}
}

func validRequest() *CreateEventRequest {
	start := time.Date(2026, 12, 5, 18, 0, 0, 0, time.UTC)
	return &CreateEventRequest{
		Title:         "Summer Jam Lagos",
		Description:   "An evening of live music by the lagoon.",
		Category:      "MUSIC",
		StartDateTime: start,
		EndDateTime:   start.Add(5 * time.Hour),
		VenueName:     "Muri Okunola Park",
		VenueAddress:  "Victoria Island, Lagos",
		TicketTiers: []TierRequest{
			{Name: "Regular", PriceCents: 500000, Quantity: 200},
			{Name: "Backstage", PriceCents: 2500000, Quantity: 10, IsVisible: boolPtr(false)},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func (h *harness) create(t *testing.T, req *CreateEventRequest) *EventResponse {
	t.Helper()
	resp, err := h.svc.Create(context.Background(), h.host, req, []Upload{cover()})
	require.NoError(t, err)
	return resp
}

func TestCreate_DraftWithDefaults(t *testing.T) {
	t.Parallel()
	h := newHarness()

	resp := h.create(t, validRequest())

	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, h.host.UserID, resp.HostID)
	assert.Equal(t, "summer-jam-lagos-1790856000000", resp.Slug)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.Equal(t, "Nigeria", resp.Country)
	assert.Equal(t, "INVITE_ONLY", resp.AccessType)
	assert.Equal(t, "QR_SCAN", resp.CheckInMethod)
	assert.Equal(t, "SINGLE_USE", resp.QRScanMode)
	assert.Equal(t, 10, resp.TicketLimitPerOrder)
	assert.ElementsMatch(t, []string{"PUBLISHED", "CANCELLED"}, resp.AllowedTransitions)
	require.Len(t, resp.CoverImages, 1)
	assert.True(t, strings.HasPrefix(resp.CoverImages[0], "https://cdn.test/events/"))

	require.Len(t, resp.TicketTiers, 2)
	assert.Equal(t, "NGN", resp.TicketTiers[0].Currency)
	assert.True(t, resp.TicketTiers[0].IsVisible)
	assert.False(t, resp.TicketTiers[1].IsVisible)
	assert.Equal(t, 200, resp.TicketTiers[0].Remaining)

	assert.Empty(t, h.changes.Changes())
	assert.Equal(t, 1, h.repo.Len())
}

func TestCreate_Refusals(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	attendee := domainUser.Principal{UserID: uuid.New(), Role: domainUser.RoleAttendee}
	_, err := h.svc.Create(ctx, attendee, validRequest(), []Upload{cover()})
	requireCode(t, err, appErrors.CodeForbidden)

	bad := validRequest()
	bad.Title = ""
	_, err = h.svc.Create(ctx, h.host, bad, []Upload{cover()})
	requireCode(t, err, appErrors.CodeValidation)

	backwards := validRequest()
	backwards.EndDateTime = backwards.StartDateTime.Add(-time.Hour)
	_, err = h.svc.Create(ctx, h.host, backwards, []Upload{cover()})
	requireCode(t, err, appErrors.CodeBadRequest)

	_, err = h.svc.Create(ctx, h.host, validRequest(), nil)
	requireCode(t, err, appErrors.CodeBadRequest)

	tooMany := make([]Upload, 0, 6)
	for i := 0; i < 6; i++ {
		tooMany = append(tooMany, cover())
	}
	_, err = h.svc.Create(ctx, h.host, validRequest(), tooMany)
	requireCode(t, err, appErrors.CodeBadRequest)

	noTiers := validRequest()
	noTiers.Status = "PUBLISHED"
	noTiers.TicketTiers = nil
	_, err = h.svc.Create(ctx, h.host, noTiers, []Upload{cover()})
	requireCode(t, err, appErrors.CodeBadRequest)

	assert.Equal(t, 0, h.repo.Len())
	assert.Equal(t, 0, h.images.Len())
}

func TestCreate_OnlineEventNeedsNoVenue(t *testing.T) {
	t.Parallel()
	h := newHarness()

	req := validRequest()
	req.IsOnline = true
	req.VenueName = ""
	req.VenueAddress = ""
	req.StreamingURL = strPtr("https://stream.test/jam")

	resp := h.create(t, req)
	assert.True(t, resp.IsOnline)
}

func TestCreate_PublishedAnnouncesChange(t *testing.T) {
	t.Parallel()
	h := newHarness()

	req := validRequest()
	req.Status = "PUBLISHED"
	resp := h.create(t, req)

	assert.Equal(t, "PUBLISHED", resp.Status)
	require.NotNil(t, resp.PublishedAt)

	changes := h.changes.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, domainEvent.StatusDraft, changes[0].From)
	assert.Equal(t, domainEvent.StatusPublished, changes[0].To)
	assert.Equal(t, resp.ID, changes[0].EventID)
}

func TestCreate_RetriesSlugCollision(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.repo.CreateErrs = []error{domainEvent.ErrSlugTaken}

	resp := h.create(t, validRequest())
	assert.Equal(t, "summer-jam-lagos-1790856000001", resp.Slug)
}

func TestCreate_StoreFailureRemovesUploads(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.repo.CreateErrs = []error{errors.New("db down")}

	_, err := h.svc.Create(context.Background(), h.host, validRequest(), []Upload{cover(), cover()})
	require.Error(t, err)
	assert.Equal(t, 0, h.images.Len())
	assert.Len(t, h.images.Deleted, 2)
}

func TestCreate_UploadFailureRemovesEarlierUploads(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.images.FailAfter = 1

	_, err := h.svc.Create(context.Background(), h.host, validRequest(), []Upload{cover(), cover()})
	require.Error(t, err)
	assert.Equal(t, 0, h.images.Len())
	assert.Equal(t, 0, h.repo.Len())
}

func TestPublishAndCancel(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	created := h.create(t, validRequest())

	published, err := h.svc.Publish(ctx, h.host, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PUBLISHED", published.Status)

	_, err = h.svc.Publish(ctx, h.host, created.ID)
	requireCode(t, err, appErrors.CodeBadRequest)

	other := domainUser.Principal{UserID: uuid.New(), Role: domainUser.RoleHost}
	_, err = h.svc.Cancel(ctx, other, created.ID)
	requireCode(t, err, appErrors.CodeForbidden)

	cancelled, err := h.svc.Cancel(ctx, h.host, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Empty(t, cancelled.AllowedTransitions)

	_, err = h.svc.Cancel(ctx, h.host, created.ID)
	requireCode(t, err, appErrors.CodeBadRequest)
	assert.Contains(t, err.Error(), "already cancelled")

	stored := h.repo.Get(created.ID)
	assert.Equal(t, domainEvent.StatusCancelled, stored.Status)

	changes := h.changes.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, domainEvent.StatusPublished, changes[1].From)
	assert.Equal(t, domainEvent.StatusCancelled, changes[1].To)
}

func TestPublish_BrokerFailureDoesNotFail(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.changes.Err = errors.New("broker offline")
	created := h.create(t, validRequest())

	resp, err := h.svc.Publish(context.Background(), h.host, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PUBLISHED", resp.Status)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	created := h.create(t, validRequest())

	resp, err := h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{
		Title:       strPtr("Summer Jam Abuja"),
		CoverImages: &[]string{"https://elsewhere.test/poster.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Jam Abuja", resp.Title)
	assert.Equal(t, created.Slug, resp.Slug)
	assert.Equal(t, []string{created.CoverImages[0]}, h.images.Deleted)

	end := created.StartDateTime.Add(-time.Minute)
	_, err = h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{EndDateTime: &end})
	requireCode(t, err, appErrors.CodeBadRequest)

	_, err = h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{Status: strPtr("COMPLETED")})
	requireCode(t, err, appErrors.CodeInvalidTransition)

	resp, err = h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{Status: strPtr("PUBLISHED")})
	require.NoError(t, err)
	assert.Equal(t, "PUBLISHED", resp.Status)

	_, err = h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{Status: strPtr("DRAFT")})
	requireCode(t, err, appErrors.CodeInvalidTransition)

	_, err = h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{Status: strPtr("CANCELLED")})
	require.NoError(t, err)

	_, err = h.svc.Update(ctx, h.host, created.ID, &UpdateEventRequest{Title: strPtr("Too late now")})
	requireCode(t, err, appErrors.CodeBadRequest)

	_, err = h.svc.Update(ctx, h.host, uuid.New(), &UpdateEventRequest{Title: strPtr("Nobody home")})
	assert.ErrorIs(t, err, domainEvent.ErrEventNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	draft := h.create(t, validRequest())
	require.NoError(t, h.svc.Delete(ctx, h.host, draft.ID))
	assert.Equal(t, 0, h.repo.Len())
	assert.Equal(t, draft.CoverImages, h.images.Deleted)

	sold := h.create(t, validRequest())
	stored := h.repo.Get(sold.ID)
	stored.TicketsSold = 3
	h.repo.Put(stored)
	requireCode(t, h.svc.Delete(ctx, h.host, sold.ID), appErrors.CodeBadRequest)

	live := h.create(t, validRequest())
	_, err := h.svc.Publish(ctx, h.host, live.ID)
	require.NoError(t, err)
	requireCode(t, h.svc.Delete(ctx, h.host, live.ID), appErrors.CodeBadRequest)
}

func TestGet_DraftVisibility(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	draft := h.create(t, validRequest())

	_, err := h.svc.Get(ctx, draft.Slug, nil)
	assert.ErrorIs(t, err, domainEvent.ErrEventNotFound)

	stranger := &domainUser.Principal{UserID: uuid.New(), Role: domainUser.RoleAttendee}
	_, err = h.svc.Get(ctx, draft.ID.String(), stranger)
	assert.ErrorIs(t, err, domainEvent.ErrEventNotFound)

	own, err := h.svc.Get(ctx, draft.Slug, &h.host)
	require.NoError(t, err)
	assert.Len(t, own.TicketTiers, 2)

	_, err = h.svc.Publish(ctx, h.host, draft.ID)
	require.NoError(t, err)

	public, err := h.svc.Get(ctx, draft.Slug, nil)
	require.NoError(t, err)
	require.Len(t, public.TicketTiers, 1)
	assert.Equal(t, "Regular", public.TicketTiers[0].Name)
	assert.Equal(t, 2, public.ViewCount)
	assert.Equal(t, 2, h.repo.Get(draft.ID).ViewCount)
}

func TestList(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	h.create(t, validRequest())
	live := validRequest()
	live.Title = "Tech Summit"
	live.Status = "PUBLISHED"
	h.create(t, live)

	resp, err := h.svc.List(ctx, &ListQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Tech Summit", resp.Data[0].Title)
	assert.Len(t, resp.Data[0].TicketTiers, 1)
	assert.Equal(t, int64(1), resp.Pagination.Total)

	_, err = h.svc.List(ctx, &ListQuery{Status: "DRAFT"})
	requireCode(t, err, appErrors.CodeBadRequest)

	_, err = h.svc.List(ctx, &ListQuery{SortBy: "price"})
	requireCode(t, err, appErrors.CodeValidation)

	mine, err := h.svc.MyEvents(ctx, h.host, &ListQuery{})
	require.NoError(t, err)
	assert.Len(t, mine.Data, 2)

	other := domainUser.Principal{UserID: uuid.New(), Role: domainUser.RoleHost}
	none, err := h.svc.MyEvents(ctx, other, &ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, none.Data)
}

func TestAddTier(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	created := h.create(t, validRequest())

	tier, err := h.svc.AddTier(ctx, h.host, created.ID, &TierRequest{Name: "VIP", PriceCents: 1000000, Quantity: 50, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "USD", tier.Currency)
	assert.Len(t, h.repo.Get(created.ID).TicketTiers, 3)

	_, err = h.svc.AddTier(ctx, h.host, created.ID, &TierRequest{Name: "Empty"})
	requireCode(t, err, appErrors.CodeValidation)

	_, err = h.svc.Cancel(ctx, h.host, created.ID)
	require.NoError(t, err)
	_, err = h.svc.AddTier(ctx, h.host, created.ID, &TierRequest{Name: "Late", Quantity: 5})
	requireCode(t, err, appErrors.CodeBadRequest)
}

func TestCompleteEnded(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	req := validRequest()
	req.Status = "PUBLISHED"
	live := h.create(t, req)
	h.create(t, validRequest())

	n, err := h.svc.CompleteEnded(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	h.now = live.EndDateTime.Add(time.Minute)
	n, err = h.svc.CompleteEnded(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domainEvent.StatusCompleted, h.repo.Get(live.ID).Status)

	changes := h.changes.Changes()
	last := changes[len(changes)-1]
	assert.Equal(t, domainEvent.StatusCompleted, last.To)
}

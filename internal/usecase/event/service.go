package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	domainEvent "event-ticketing/internal/domain/event"
	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/security"
	appErrors "event-ticketing/pkg/errors"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	defaultTimezone       = "UTC"
	defaultCountry        = "Nigeria"
	defaultCurrency       = "NGN"
	defaultTicketLimit    = 10
	coverImageFolder      = "events"
	maxSlugBaseLength     = 80
	slugCollisionAttempts = 3
)

// ImageStore keeps cover images.
type ImageStore interface {
	UploadImage(ctx context.Context, folder string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// StatusPublisher announces lifecycle changes.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, change domainEvent.StatusChange) error
}

// Service implements event use cases
type Service struct {
	repo      domainEvent.Repository
	images    ImageStore
	publisher StatusPublisher
	clock     security.Clock
}

func NewService(repo domainEvent.Repository, images ImageStore, publisher StatusPublisher, clock security.Clock) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		publisher: publisher,
		clock:     clock,
	}
}

func (s *Service) Create(ctx context.Context, host domainUser.Principal, req *CreateEventRequest, covers []Upload) (*EventResponse, error) {
	if !host.HasRole(domainUser.RoleHost) {
		return nil, appErrors.Forbidden("Only hosts can create events")
	}

	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}
	if !req.EndDateTime.After(req.StartDateTime) {
		return nil, appErrors.BadRequest("End date must be after start date")
	}
	if len(req.CoverImages)+len(covers) == 0 {
		return nil, appErrors.BadRequest("At least one cover image is required")
	}
	if len(req.CoverImages)+len(covers) > maxCoverImages {
		return nil, appErrors.BadRequest(fmt.Sprintf("At most %d cover images are allowed", maxCoverImages))
	}

	status := domainEvent.StatusDraft
	if req.Status != "" {
		status = domainEvent.Status(req.Status)
	}

	e := newEventFromRequest(host.UserID, req, status)
	if status == domainEvent.StatusPublished && len(e.TicketTiers) == 0 {
		return nil, appErrors.BadRequest("Event must have at least one ticket tier before publishing")
	}

	uploaded, err := s.uploadCovers(ctx, covers)
	if err != nil {
		return nil, err
	}
	e.CoverImages = append(e.CoverImages, uploaded...)

	if status == domainEvent.StatusPublished {
		if err := domainEvent.ValidatePublishable(e); err != nil {
			s.deleteImages(ctx, uploaded)
			return nil, err
		}
		now := s.clock.Now()
		e.PublishedAt = &now
	}

	if err := s.createWithUniqueSlug(ctx, e); err != nil {
		s.deleteImages(ctx, uploaded)
		return nil, err
	}

	logger.Info("Event created",
		zap.String("event_id", e.ID.String()),
		zap.String("host_id", host.UserID.String()),
		zap.String("status", string(e.Status)),
		logger.Event("event_created"),
	)

	if e.Status == domainEvent.StatusPublished {
		s.announce(ctx, e, domainEvent.StatusDraft, domainEvent.StatusPublished)
	}

	return ToEventResponse(e), nil
}

// List returns public events. Only published events are listed unless a
// non-draft status is asked for.
func (s *Service) List(ctx context.Context, q *ListQuery) (*EventListResponse, error) {
	if err := utils.ValidationError(q); err != nil {
		return nil, err
	}
	if q.Status == string(domainEvent.StatusDraft) {
		return nil, appErrors.BadRequest("Draft events are not listed publicly")
	}

	filter := toListFilter(q)
	filter.VisibleTiersOnly = true
	if filter.Status == nil {
		published := domainEvent.StatusPublished
		filter.Status = &published
	}

	return s.list(ctx, filter)
}

// MyEvents lists every event the host owns, drafts included.
func (s *Service) MyEvents(ctx context.Context, host domainUser.Principal, q *ListQuery) (*EventListResponse, error) {
	if err := utils.ValidationError(q); err != nil {
		return nil, err
	}

	filter := toListFilter(q)
	filter.HostID = &host.UserID
	if q.SortBy == "" {
		filter.SortBy = domainEvent.SortByCreatedAt
		filter.SortDesc = q.SortOrder != "asc"
	}

	return s.list(ctx, filter)
}

// Get loads an event by id or slug and counts the view. Drafts are only
// visible to their host.
func (s *Service) Get(ctx context.Context, key string, viewer *domainUser.Principal) (*EventResponse, error) {
	e, err := s.repo.GetByIDOrSlug(ctx, key)
	if err != nil {
		return nil, err
	}

	isOwner := viewer != nil && e.IsOwnedBy(viewer.UserID)
	if e.Status == domainEvent.StatusDraft && !isOwner {
		return nil, domainEvent.ErrEventNotFound
	}
	if !isOwner {
		e.TicketTiers = visibleTiers(e.TicketTiers)
	}

	if err := s.repo.IncrementViewCount(ctx, e.ID); err != nil {
		logger.Warn("Failed to increment view count",
			zap.String("event_id", e.ID.String()),
			zap.Error(err),
		)
	} else {
		e.ViewCount++
	}

	return ToEventResponse(e), nil
}

func (s *Service) Update(ctx context.Context, host domainUser.Principal, eventID uuid.UUID, req *UpdateEventRequest) (*EventResponse, error) {
	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}

	e, err := s.ownedEvent(ctx, host, eventID)
	if err != nil {
		return nil, err
	}
	if e.IsFinal() {
		return nil, appErrors.BadRequest(fmt.Sprintf("Cannot update a %s event", strings.ToLower(string(e.Status))))
	}

	previousCovers := e.CoverImages
	applyUpdate(e, req)
	if !e.EndDateTime.After(e.StartDateTime) {
		return nil, appErrors.BadRequest("End date must be after start date")
	}

	from := e.Status
	to := from
	if req.Status != nil {
		to = domainEvent.Status(*req.Status)
	}
	if to != from {
		if err := domainEvent.ValidateStatusTransition(from, to); err != nil {
			return nil, err
		}
		if to == domainEvent.StatusPublished {
			if err := domainEvent.ValidatePublishable(e); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	if to != from {
		if err := s.changeStatus(ctx, e, to); err != nil {
			return nil, err
		}
	}

	if req.CoverImages != nil {
		s.deleteImages(ctx, removed(previousCovers, e.CoverImages))
	}

	logger.Info("Event updated",
		zap.String("event_id", e.ID.String()),
		zap.String("host_id", host.UserID.String()),
		logger.Event("event_updated"),
	)

	return ToEventResponse(e), nil
}

// Delete removes a draft event that has not sold any tickets, along with
// its stored cover images.
func (s *Service) Delete(ctx context.Context, host domainUser.Principal, eventID uuid.UUID) error {
	e, err := s.ownedEvent(ctx, host, eventID)
	if err != nil {
		return err
	}
	if e.Status != domainEvent.StatusDraft {
		return appErrors.BadRequest("Only draft events can be deleted")
	}
	if e.TicketsSold > 0 {
		return appErrors.BadRequest("Cannot delete an event with sold tickets")
	}

	if err := s.repo.Delete(ctx, e.ID); err != nil {
		return err
	}
	s.deleteImages(ctx, e.CoverImages)

	logger.Info("Event deleted",
		zap.String("event_id", e.ID.String()),
		zap.String("host_id", host.UserID.String()),
		logger.Event("event_deleted"),
	)
	return nil
}

func (s *Service) Cancel(ctx context.Context, host domainUser.Principal, eventID uuid.UUID) (*EventResponse, error) {
	e, err := s.ownedEvent(ctx, host, eventID)
	if err != nil {
		return nil, err
	}

	switch e.Status {
	case domainEvent.StatusCancelled:
		return nil, appErrors.BadRequest("Event is already cancelled")
	case domainEvent.StatusCompleted:
		return nil, appErrors.BadRequest("Cannot cancel a completed event")
	}

	if err := s.changeStatus(ctx, e, domainEvent.StatusCancelled); err != nil {
		return nil, err
	}
	return ToEventResponse(e), nil
}

func (s *Service) Publish(ctx context.Context, host domainUser.Principal, eventID uuid.UUID) (*EventResponse, error) {
	e, err := s.ownedEvent(ctx, host, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status != domainEvent.StatusDraft {
		return nil, appErrors.BadRequest("Only draft events can be published")
	}
	if err := domainEvent.ValidatePublishable(e); err != nil {
		return nil, err
	}

	if err := s.changeStatus(ctx, e, domainEvent.StatusPublished); err != nil {
		return nil, err
	}
	return ToEventResponse(e), nil
}

func (s *Service) AddTier(ctx context.Context, host domainUser.Principal, eventID uuid.UUID, req *TierRequest) (*TierResponse, error) {
	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}

	e, err := s.ownedEvent(ctx, host, eventID)
	if err != nil {
		return nil, err
	}
	if e.IsFinal() {
		return nil, appErrors.BadRequest("Cannot add ticket tiers to a finished event")
	}

	tier := newTier(e.ID, req)
	if err := s.repo.AddTier(ctx, &tier); err != nil {
		return nil, err
	}

	logger.Info("Ticket tier added",
		zap.String("event_id", e.ID.String()),
		zap.String("tier_id", tier.ID.String()),
		logger.Event("ticket_tier_added"),
	)

	resp := ToTierResponse(&tier)
	return &resp, nil
}

// CompleteEnded moves published events whose end time has passed to
// COMPLETED and announces each change.
func (s *Service) CompleteEnded(ctx context.Context) (int, error) {
	now := s.clock.Now()
	completed, err := s.repo.CompleteEnded(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, e := range completed {
		s.announce(ctx, e, domainEvent.StatusPublished, domainEvent.StatusCompleted)
	}
	return len(completed), nil
}

func (s *Service) list(ctx context.Context, filter domainEvent.ListFilter) (*EventListResponse, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	data := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		data = append(data, ToEventResponse(e))
	}

	return &EventListResponse{
		Data:       data,
		Pagination: utils.NewPagination(page, limit, total),
	}, nil
}

func (s *Service) ownedEvent(ctx context.Context, host domainUser.Principal, eventID uuid.UUID) (*domainEvent.Event, error) {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.IsOwnedBy(host.UserID) {
		logger.Warn("Event access denied",
			zap.String("event_id", eventID.String()),
			logger.UserID(host.UserID),
			logger.Event("event_access_denied"),
		)
		return nil, appErrors.Forbidden("You do not own this event")
	}
	return e, nil
}

func (s *Service) changeStatus(ctx context.Context, e *domainEvent.Event, to domainEvent.Status) error {
	from := e.Status
	if err := domainEvent.ValidateStatusTransition(from, to); err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, e.ID, to, now); err != nil {
		return err
	}

	e.Status = to
	e.UpdatedAt = now
	switch to {
	case domainEvent.StatusPublished:
		e.PublishedAt = &now
	case domainEvent.StatusCancelled:
		e.CancelledAt = &now
	}

	logger.Info("Event status changed",
		zap.String("event_id", e.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		logger.Event("event_status_changed"),
	)

	s.announce(ctx, e, from, to)
	return nil
}

// announce is best effort; a broker outage never fails the request.
func (s *Service) announce(ctx context.Context, e *domainEvent.Event, from, to domainEvent.Status) {
	if s.publisher == nil {
		return
	}
	change := domainEvent.StatusChange{
		EventID:   e.ID,
		HostID:    e.HostID,
		Slug:      e.Slug,
		From:      from,
		To:        to,
		ChangedAt: s.clock.Now(),
	}
	if err := s.publisher.PublishStatusChange(ctx, change); err != nil {
		logger.Warn("Failed to publish event status change",
			zap.String("event_id", e.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) createWithUniqueSlug(ctx context.Context, e *domainEvent.Event) error {
	var err error
	for attempt := 0; attempt < slugCollisionAttempts; attempt++ {
		e.Slug = s.makeSlug(e.Title, attempt)
		if err = s.repo.Create(ctx, e); !errors.Is(err, domainEvent.ErrSlugTaken) {
			return err
		}
	}
	return err
}

// makeSlug builds "<title-slug>-<unix millis>".
func (s *Service) makeSlug(title string, attempt int) string {
	base := slug.Make(title)
	if len(base) > maxSlugBaseLength {
		base = strings.TrimRight(base[:maxSlugBaseLength], "-")
	}
	if base == "" {
		base = "event"
	}
	return fmt.Sprintf("%s-%d", base, s.clock.Now().UnixMilli()+int64(attempt))
}

func (s *Service) uploadCovers(ctx context.Context, covers []Upload) ([]string, error) {
	if len(covers) == 0 {
		return nil, nil
	}
	if s.images == nil {
		return nil, appErrors.BadRequest("File uploads are not enabled")
	}

	urls := make([]string, 0, len(covers))
	for _, cover := range covers {
		url, err := s.images.UploadImage(ctx, coverImageFolder, cover.Reader, cover.Size)
		if err != nil {
			s.deleteImages(ctx, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *Service) deleteImages(ctx context.Context, urls []string) {
	if s.images == nil {
		return
	}
	for _, url := range urls {
		if err := s.images.Delete(ctx, url); err != nil {
			logger.Warn("Failed to delete cover image", zap.String("url", url), zap.Error(err))
		}
	}
}

func newEventFromRequest(hostID uuid.UUID, req *CreateEventRequest, status domainEvent.Status) *domainEvent.Event {
	e := &domainEvent.Event{
		HostID:              hostID,
		Title:               utils.SanitizeString(req.Title),
		Description:         utils.SanitizeText(req.Description),
		CoverImages:         append([]string(nil), req.CoverImages...),
		Category:            domainEvent.Category(req.Category),
		Tags:                req.Tags,
		StartDateTime:       req.StartDateTime,
		EndDateTime:         req.EndDateTime,
		Timezone:            withDefault(req.Timezone, defaultTimezone),
		IsOnline:            req.IsOnline,
		StreamingURL:        req.StreamingURL,
		VenueName:           utils.SanitizeString(req.VenueName),
		VenueAddress:        utils.SanitizeString(req.VenueAddress),
		City:                req.City,
		State:               req.State,
		Country:             withDefault(req.Country, defaultCountry),
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		TotalCapacity:       req.TotalCapacity,
		AccessType:          domainEvent.AccessType(withDefault(req.AccessType, string(domainEvent.AccessInviteOnly))),
		AgeRestriction:      req.AgeRestriction,
		TicketLimitPerOrder: req.TicketLimitPerOrder,
		CheckInMethod:       domainEvent.CheckInMethod(withDefault(req.CheckInMethod, string(domainEvent.CheckInQRScan))),
		QRScanMode:          domainEvent.QRScanMode(withDefault(req.QRScanMode, string(domainEvent.QRSingleUse))),
		CheckInWindowStart:  req.CheckInWindowStart,
		CheckInWindowEnd:    req.CheckInWindowEnd,
		RefundPolicy:        req.RefundPolicy,
		RefundableUntil:     req.RefundableUntil,
		VisibilityDate:      req.VisibilityDate,
		Status:              status,
	}
	if e.TicketLimitPerOrder == 0 {
		e.TicketLimitPerOrder = defaultTicketLimit
	}
	for i := range req.TicketTiers {
		e.TicketTiers = append(e.TicketTiers, newTier(uuid.Nil, &req.TicketTiers[i]))
	}
	return e
}

func newTier(eventID uuid.UUID, req *TierRequest) domainEvent.TicketTier {
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	return domainEvent.TicketTier{
		EventID:     eventID,
		Name:        utils.SanitizeString(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    strings.ToUpper(withDefault(req.Currency, defaultCurrency)),
		Quantity:    req.Quantity,
		IsVisible:   visible,
		SortOrder:   req.SortOrder,
	}
}

func applyUpdate(e *domainEvent.Event, req *UpdateEventRequest) {
	if req.Title != nil {
		e.Title = utils.SanitizeString(*req.Title)
	}
	if req.Description != nil {
		e.Description = utils.SanitizeText(*req.Description)
	}
	if req.Category != nil {
		e.Category = domainEvent.Category(*req.Category)
	}
	if req.Tags != nil {
		e.Tags = *req.Tags
	}
	if req.CoverImages != nil {
		e.CoverImages = *req.CoverImages
	}
	if req.StartDateTime != nil {
		e.StartDateTime = *req.StartDateTime
	}
	if req.EndDateTime != nil {
		e.EndDateTime = *req.EndDateTime
	}
	if req.Timezone != nil {
		e.Timezone = *req.Timezone
	}
	if req.IsOnline != nil {
		e.IsOnline = *req.IsOnline
	}
	if req.StreamingURL != nil {
		e.StreamingURL = req.StreamingURL
	}
	if req.VenueName != nil {
		e.VenueName = utils.SanitizeString(*req.VenueName)
	}
	if req.VenueAddress != nil {
		e.VenueAddress = utils.SanitizeString(*req.VenueAddress)
	}
	if req.City != nil {
		e.City = req.City
	}
	if req.State != nil {
		e.State = req.State
	}
	if req.Country != nil {
		e.Country = *req.Country
	}
	if req.Latitude != nil {
		e.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		e.Longitude = req.Longitude
	}
	if req.TotalCapacity != nil {
		e.TotalCapacity = req.TotalCapacity
	}
	if req.AccessType != nil {
		e.AccessType = domainEvent.AccessType(*req.AccessType)
	}
	if req.AgeRestriction != nil {
		e.AgeRestriction = req.AgeRestriction
	}
	if req.TicketLimitPerOrder != nil {
		e.TicketLimitPerOrder = *req.TicketLimitPerOrder
	}
	if req.CheckInMethod != nil {
		e.CheckInMethod = domainEvent.CheckInMethod(*req.CheckInMethod)
	}
	if req.QRScanMode != nil {
		e.QRScanMode = domainEvent.QRScanMode(*req.QRScanMode)
	}
	if req.CheckInWindowStart != nil {
		e.CheckInWindowStart = req.CheckInWindowStart
	}
	if req.CheckInWindowEnd != nil {
		e.CheckInWindowEnd = req.CheckInWindowEnd
	}
	if req.RefundPolicy != nil {
		e.RefundPolicy = req.RefundPolicy
	}
	if req.RefundableUntil != nil {
		e.RefundableUntil = req.RefundableUntil
	}
	if req.VisibilityDate != nil {
		e.VisibilityDate = req.VisibilityDate
	}
}

func toListFilter(q *ListQuery) domainEvent.ListFilter {
	filter := domainEvent.ListFilter{
		IsFeatured:    q.IsFeatured,
		IsOnline:      q.IsOnline,
		StartDateFrom: q.StartDateFrom,
		StartDateTo:   q.StartDateTo,
		Search:        strings.TrimSpace(q.Search),
		SortBy:        domainEvent.SortField(withDefault(q.SortBy, string(domainEvent.SortByStartDateTime))),
		SortDesc:      q.SortOrder == "desc",
		Page:          q.Page,
		Limit:         q.Limit,
	}
	if q.Category != "" {
		c := domainEvent.Category(q.Category)
		filter.Category = &c
	}
	if q.Status != "" {
		st := domainEvent.Status(q.Status)
		filter.Status = &st
	}
	if q.AccessType != "" {
		a := domainEvent.AccessType(q.AccessType)
		filter.AccessType = &a
	}
	if q.City != "" {
		filter.City = &q.City
	}
	if q.Country != "" {
		filter.Country = &q.Country
	}
	return filter
}

func visibleTiers(tiers []domainEvent.TicketTier) []domainEvent.TicketTier {
	out := make([]domainEvent.TicketTier, 0, len(tiers))
	for _, t := range tiers {
		if t.IsVisible {
			out = append(out, t)
		}
	}
	return out
}

// removed returns the urls in before that are missing from after.
func removed(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, u := range after {
		kept[u] = struct{}{}
	}
	var out []string
	for _, u := range before {
		if _, ok := kept[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

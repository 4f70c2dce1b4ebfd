package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-ticketing/internal/domain/event"
	"event-ticketing/internal/infrastructure/database/postgres/models"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository implements domain.Event.Repository interface
type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) event.Repository {
	return &EventRepository{db: db}
}

var eventSortColumns = map[event.SortField]string{
	event.SortByStartDateTime: "start_date_time",
	event.SortByCreatedAt:     "created_at",
	event.SortByViewCount:     "view_count",
	event.SortByTicketsSold:   "tickets_sold",
}

func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	now := time.Now()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	for i := range e.TicketTiers {
		tier := &e.TicketTiers[i]
		if tier.ID == uuid.Nil {
			tier.ID = uuid.New()
		}
		tier.EventID = e.ID
		tier.CreatedAt = now
		tier.UpdatedAt = now
	}

	if err := r.db.DB.WithContext(ctx).Create(toEventModel(e)).Error; err != nil {
		if isDuplicateKey(err) {
			return event.ErrSlugTaken
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return r.first(r.withTiers(r.db.DB.WithContext(ctx), false).Where("id = ?", id))
}

func (r *EventRepository) GetByIDOrSlug(ctx context.Context, key string) (*event.Event, error) {
	if id, err := uuid.Parse(key); err == nil {
		return r.GetByID(ctx, id)
	}
	return r.first(r.withTiers(r.db.DB.WithContext(ctx), false).Where("slug = ?", key))
}

func (r *EventRepository) List(ctx context.Context, filter event.ListFilter) ([]*event.Event, int64, error) {
	var dbModels []models.EventModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.EventModel{})

	if filter.HostID != nil {
		db = db.Where("host_id = ?", *filter.HostID)
	}
	if filter.Category != nil {
		db = db.Where("category = ?", string(*filter.Category))
	}
	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.AccessType != nil {
		db = db.Where("access_type = ?", string(*filter.AccessType))
	}
	if filter.City != nil {
		db = db.Where("city ILIKE ?", *filter.City)
	}
	if filter.Country != nil {
		db = db.Where("country ILIKE ?", *filter.Country)
	}
	if filter.IsFeatured != nil {
		db = db.Where("is_featured = ?", *filter.IsFeatured)
	}
	if filter.IsOnline != nil {
		db = db.Where("is_online = ?", *filter.IsOnline)
	}
	if filter.StartDateFrom != nil {
		db = db.Where("start_date_time >= ?", *filter.StartDateFrom)
	}
	if filter.StartDateTo != nil {
		db = db.Where("start_date_time <= ?", *filter.StartDateTo)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where("title ILIKE ? OR description ILIKE ? OR venue_name ILIKE ?", search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	err := r.withTiers(db, filter.VisibleTiersOnly).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumn(filter.SortBy)}, Desc: filter.SortDesc}).
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*event.Event, 0, len(dbModels))
	for i := range dbModels {
		events = append(events, toEventEntity(&dbModels[i]))
	}
	return events, total, nil
}

func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	e.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.EventModel{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"title":                  e.Title,
			"description":            e.Description,
			"cover_images":           stringArray(e.CoverImages),
			"category":               string(e.Category),
			"tags":                   stringArray(e.Tags),
			"start_date_time":        e.StartDateTime,
			"end_date_time":          e.EndDateTime,
			"timezone":               e.Timezone,
			"is_online":              e.IsOnline,
			"streaming_url":          e.StreamingURL,
			"venue_name":             e.VenueName,
			"venue_address":          e.VenueAddress,
			"city":                   e.City,
			"state":                  e.State,
			"country":                e.Country,
			"latitude":               e.Latitude,
			"longitude":              e.Longitude,
			"total_capacity":         e.TotalCapacity,
			"access_type":            string(e.AccessType),
			"age_restriction":        e.AgeRestriction,
			"ticket_limit_per_order": e.TicketLimitPerOrder,
			"check_in_method":        string(e.CheckInMethod),
			"qr_scan_mode":           string(e.QRScanMode),
			"check_in_window_start":  e.CheckInWindowStart,
			"check_in_window_end":    e.CheckInWindowEnd,
			"refund_policy":          e.RefundPolicy,
			"refundable_until":       e.RefundableUntil,
			"visibility_date":        e.VisibilityDate,
			"updated_at":             e.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return event.ErrEventNotFound
	}

	return nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status event.Status, at time.Time) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": at,
	}
	switch status {
	case event.StatusPublished:
		updates["published_at"] = at
	case event.StatusCancelled:
		updates["cancelled_at"] = at
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.EventModel{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return event.ErrEventNotFound
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.EventModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return event.ErrEventNotFound
	}

	return nil
}

func (r *EventRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.EventModel{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *EventRepository) AddTier(ctx context.Context, tier *event.TicketTier) error {
	now := time.Now()
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	tier.CreatedAt = now
	tier.UpdatedAt = now

	dbModel := toTierModel(tier)
	if err := r.db.DB.WithContext(ctx).Create(&dbModel).Error; err != nil {
		return fmt.Errorf("failed to add ticket tier: %w", err)
	}
	return nil
}

func (r *EventRepository) CompleteEnded(ctx context.Context, cutoff time.Time) ([]*event.Event, error) {
	var dbModels []models.EventModel

	err := r.db.DB.WithContext(ctx).
		Model(&dbModels).
		Clauses(clause.Returning{}).
		Where("status = ? AND end_date_time < ?", string(event.StatusPublished), cutoff).
		Updates(map[string]interface{}{
			"status":     string(event.StatusCompleted),
			"updated_at": cutoff,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to complete ended events: %w", err)
	}

	events := make([]*event.Event, 0, len(dbModels))
	for i := range dbModels {
		events = append(events, toEventEntity(&dbModels[i]))
	}
	return events, nil
}

func (r *EventRepository) withTiers(db *gorm.DB, visibleOnly bool) *gorm.DB {
	return db.Preload("TicketTiers", func(tx *gorm.DB) *gorm.DB {
		if visibleOnly {
			tx = tx.Where("is_visible = ?", true)
		}
		return tx.Order("sort_order ASC")
	})
}

func (r *EventRepository) first(query *gorm.DB) (*event.Event, error) {
	var dbModel models.EventModel
	err := query.First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, event.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return toEventEntity(&dbModel), nil
}

func sortColumn(field event.SortField) string {
	if column, ok := eventSortColumns[field]; ok {
		return column
	}
	return "start_date_time"
}

func stringArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func toEventModel(e *event.Event) *models.EventModel {
	tiers := make([]models.TicketTierModel, 0, len(e.TicketTiers))
	for i := range e.TicketTiers {
		tiers = append(tiers, toTierModel(&e.TicketTiers[i]))
	}

	return &models.EventModel{
		ID:                  e.ID,
		HostID:              e.HostID,
		Title:               e.Title,
		Slug:                e.Slug,
		Description:         e.Description,
		CoverImages:         stringArray(e.CoverImages),
		Category:            string(e.Category),
		Tags:                stringArray(e.Tags),
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

func toEventEntity(m *models.EventModel) *event.Event {
	tiers := make([]event.TicketTier, 0, len(m.TicketTiers))
	for i := range m.TicketTiers {
		tiers = append(tiers, toTierEntity(&m.TicketTiers[i]))
	}

	return &event.Event{
		ID:                  m.ID,
		HostID:              m.HostID,
		Title:               m.Title,
		Slug:                m.Slug,
		Description:         m.Description,
		CoverImages:         []string(m.CoverImages),
		Category:            event.Category(m.Category),
		Tags:                []string(m.Tags),
		StartDateTime:       m.StartDateTime,
		EndDateTime:         m.EndDateTime,
		Timezone:            m.Timezone,
		IsOnline:            m.IsOnline,
		StreamingURL:        m.StreamingURL,
		VenueName:           m.VenueName,
		VenueAddress:        m.VenueAddress,
		City:                m.City,
		State:               m.State,
		Country:             m.Country,
		Latitude:            m.Latitude,
		Longitude:           m.Longitude,
		TotalCapacity:       m.TotalCapacity,
		AccessType:          event.AccessType(m.AccessType),
		AgeRestriction:      m.AgeRestriction,
		TicketLimitPerOrder: m.TicketLimitPerOrder,
		CheckInMethod:       event.CheckInMethod(m.CheckInMethod),
		QRScanMode:          event.QRScanMode(m.QRScanMode),
		CheckInWindowStart:  m.CheckInWindowStart,
		CheckInWindowEnd:    m.CheckInWindowEnd,
		RefundPolicy:        m.RefundPolicy,
		RefundableUntil:     m.RefundableUntil,
		Status:              event.Status(m.Status),
		VisibilityDate:      m.VisibilityDate,
		IsFeatured:          m.IsFeatured,
		ViewCount:           m.ViewCount,
		TicketsSold:         m.TicketsSold,
		PublishedAt:         m.PublishedAt,
		CancelledAt:         m.CancelledAt,
		TicketTiers:         tiers,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toTierModel(t *event.TicketTier) models.TicketTierModel {
	return models.TicketTierModel{
		ID:           t.ID,
		EventID:      t.EventID,
		Name:         t.Name,
		Description:  t.Description,
		PriceCents:   t.PriceCents,
		Currency:     t.Currency,
		Quantity:     t.Quantity,
		QuantitySold: t.QuantitySold,
		IsVisible:    t.IsVisible,
		SortOrder:    t.SortOrder,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTierEntity(m *models.TicketTierModel) event.TicketTier {
	return event.TicketTier{
		ID:           m.ID,
		EventID:      m.EventID,
		Name:         m.Name,
		Description:  m.Description,
		PriceCents:   m.PriceCents,
		Currency:     m.Currency,
		Quantity:     m.Quantity,
		QuantitySold: m.QuantitySold,
		IsVisible:    m.IsVisible,
		SortOrder:    m.SortOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

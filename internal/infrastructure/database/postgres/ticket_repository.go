package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-ticketing/internal/domain/event"
	"event-ticketing/internal/domain/ticket"
	"event-ticketing/internal/infrastructure/database/postgres/models"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketRepository implements domain.Ticket.Repository interface
type TicketRepository struct {
	db *DB
}

func NewTicketRepository(db *DB) ticket.Repository {
	return &TicketRepository{db: db}
}

var ticketSortColumns = map[ticket.SortField]string{
	ticket.SortByCreatedAt:      "tickets.created_at",
	ticket.SortByIssuedAt:       "tickets.issued_at",
	ticket.SortByEventStartDate: `"Event".start_date_time`,
	ticket.SortByEventEndDate:   `"Event".end_date_time`,
}

const ticketStatsQuery = `
SELECT
	COUNT(*) AS total_tickets,
	COUNT(*) FILTER (WHERE e.start_date_time > @now) AS upcoming_tickets,
	COUNT(*) FILTER (WHERE e.end_date_time < @now) AS past_tickets,
	COUNT(*) FILTER (WHERE t.status = @used) AS used_tickets,
	COUNT(*) FILTER (WHERE t.status = @active) AS active_tickets,
	COALESCE(SUM(t.price_paid_cents) FILTER (WHERE t.status NOT IN @unpaid), 0) AS total_spent_cents
FROM tickets t
JOIN events e ON e.id = t.event_id
WHERE t.user_id = @user`

func (r *TicketRepository) ListForUser(ctx context.Context, filter ticket.ListFilter) ([]*ticket.Ticket, int64, error) {
	var dbModels []models.TicketModel
	var total int64

	db := r.db.DB.WithContext(ctx).
		Model(&models.TicketModel{}).
		Joins("Event").
		Where("tickets.user_id = ?", filter.UserID)

	if filter.Status != nil {
		db = db.Where("tickets.status = ?", string(*filter.Status))
	}
	if filter.EventStatus != nil {
		db = db.Where(`"Event".status = ?`, string(*filter.EventStatus))
	}
	if filter.Timing != nil {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		switch *filter.Timing {
		case ticket.FilterUpcoming:
			db = db.Where(`"Event".start_date_time > ?`, now)
		case ticket.FilterPast:
			db = db.Where(`"Event".end_date_time < ?`, now)
		case ticket.FilterToday:
			dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			db = db.Where(`"Event".start_date_time >= ? AND "Event".start_date_time < ?`, dayStart, dayStart.AddDate(0, 0, 1))
		}
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where(`"Event".title ILIKE ? OR tickets.ticket_code ILIKE ?`, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	sortBy, ok := ticketSortColumns[filter.SortBy]
	if !ok {
		sortBy = ticketSortColumns[ticket.SortByCreatedAt]
	}
	sortOrder := "ASC"
	if filter.SortDesc {
		sortOrder = "DESC"
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	err := db.Preload("TicketTier").
		Order(sortBy + " " + sortOrder).
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	tickets := make([]*ticket.Ticket, 0, len(dbModels))
	for i := range dbModels {
		tickets = append(tickets, toTicketEntity(&dbModels[i]))
	}
	return tickets, total, nil
}

func (r *TicketRepository) GetForUser(ctx context.Context, userID uuid.UUID, idOrCode string) (*ticket.Ticket, error) {
	db := r.db.DB.WithContext(ctx).
		Joins("Event").
		Preload("TicketTier").
		Where("tickets.user_id = ?", userID)

	if id, err := uuid.Parse(idOrCode); err == nil {
		db = db.Where("tickets.id = ?", id)
	} else {
		db = db.Where("tickets.ticket_code = ?", idOrCode)
	}

	var dbModel models.TicketModel
	err := db.First(&dbModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ticket.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return toTicketEntity(&dbModel), nil
}

func (r *TicketRepository) StatsForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*ticket.Stats, error) {
	var stats ticket.Stats
	err := r.db.DB.WithContext(ctx).
		Raw(ticketStatsQuery, map[string]interface{}{
			"now":    now,
			"used":   string(ticket.StatusUsed),
			"active": string(ticket.StatusActive),
			"unpaid": []string{string(ticket.StatusRefunded), string(ticket.StatusCancelled)},
			"user":   userID,
		}).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket statistics: %w", err)
	}
	return &stats, nil
}

func (r *TicketRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.TicketModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func toTicketEntity(m *models.TicketModel) *ticket.Ticket {
	return &ticket.Ticket{
		ID:             m.ID,
		EventID:        m.EventID,
		TicketTierID:   m.TicketTierID,
		UserID:         m.UserID,
		TicketCode:     m.TicketCode,
		Status:         ticket.Status(m.Status),
		PricePaidCents: m.PricePaidCents,
		Currency:       m.Currency,
		IssuedAt:       m.IssuedAt,
		CheckedInAt:    m.CheckedInAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		TierName:       m.TicketTier.Name,
		Event: ticket.EventSummary{
			ID:              m.Event.ID,
			Title:           m.Event.Title,
			Slug:            m.Event.Slug,
			CoverImages:     []string(m.Event.CoverImages),
			StartDateTime:   m.Event.StartDateTime,
			EndDateTime:     m.Event.EndDateTime,
			VenueName:       m.Event.VenueName,
			VenueAddress:    m.Event.VenueAddress,
			City:            m.Event.City,
			IsOnline:        m.Event.IsOnline,
			Status:          event.Status(m.Event.Status),
			RefundableUntil: m.Event.RefundableUntil,
		},
	}
}

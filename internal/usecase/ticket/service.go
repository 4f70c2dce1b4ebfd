package ticket

import (
	"context"
	"strings"

	domainEvent "event-ticketing/internal/domain/event"
	domainTicket "event-ticketing/internal/domain/ticket"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/security"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo  domainTicket.Repository
	clock security.Clock
}

func NewService(repo domainTicket.Repository, clock security.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// ListMine returns the caller's tickets, newest first unless asked otherwise.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, q *ListQuery) (*TicketListResponse, error) {
	if err := utils.ValidationError(q); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	filter := domainTicket.ListFilter{
		UserID:   userID,
		Search:   strings.TrimSpace(q.Search),
		Now:      now,
		SortBy:   domainTicket.SortByCreatedAt,
		SortDesc: q.SortOrder != "asc",
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.SortBy != "" {
		filter.SortBy = domainTicket.SortField(q.SortBy)
	}
	if q.Status != "" {
		st := domainTicket.Status(q.Status)
		filter.Status = &st
	}
	if q.EventTiming != "" {
		timing := domainTicket.TimingFilter(q.EventTiming)
		filter.Timing = &timing
	}
	if q.EventStatus != "" {
		es := domainEvent.Status(q.EventStatus)
		filter.EventStatus = &es
	}

	tickets, total, err := s.repo.ListForUser(ctx, filter)
	if err != nil {
		logger.Error("Failed to list tickets", logger.UserID(userID), zap.Error(err))
		return nil, err
	}

	data := make([]*TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		data = append(data, ToTicketResponse(t, now))
	}

	page, limit := utils.NormalizePage(q.Page, q.Limit)
	return &TicketListResponse{
		Data:       data,
		Pagination: utils.NewPagination(page, limit, total),
	}, nil
}

// GetMine looks up one of the caller's tickets by id or ticket code.
func (s *Service) GetMine(ctx context.Context, userID uuid.UUID, idOrCode string) (*TicketDetailResponse, error) {
	t, err := s.repo.GetForUser(ctx, userID, strings.TrimSpace(idOrCode))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &TicketDetailResponse{
		TicketResponse: *ToTicketResponse(t, now),
		CanRefund:      t.CanRefund(now),
	}, nil
}

func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*domainTicket.Stats, error) {
	return s.repo.StatsForUser(ctx, userID, s.clock.Now())
}

func (s *Service) CountMine(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountForUser(ctx, userID)
}

package user

import (
	"context"
	"fmt"
	"io"
	"time"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/security"
	appErrors "event-ticketing/pkg/errors"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const avatarFolder = "avatars"

// TicketCounter reports how many tickets a user holds.
type TicketCounter interface {
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type ImageStore interface {
	UploadImage(ctx context.Context, folder string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// Service implements profile use cases
type Service struct {
	userRepo    domainUser.Repository
	sessionRepo domainUser.SessionRepository
	tickets     TicketCounter
	images      ImageStore
	clock       security.Clock
}

func NewService(
	userRepo domainUser.Repository,
	sessionRepo domainUser.SessionRepository,
	tickets TicketCounter,
	images ImageStore,
	clock security.Clock,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tickets:     tickets,
		images:      images,
		clock:       clock,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var count int64
	if s.tickets != nil {
		count, err = s.tickets.CountForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count tickets: %w", err)
		}
	}

	return ToProfileResponse(user, count), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*ProfileResponse, error) {
	if req.PhoneNumber != nil {
		phone := utils.SanitizePhone(*req.PhoneNumber)
		req.PhoneNumber = &phone
	}
	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = utils.SanitizeString(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = utils.SanitizeString(*req.LastName)
	}
	if req.Bio != nil {
		user.Bio = utils.SanitizeOptional(req.Bio, utils.SanitizeText)
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dateOfBirthLayout, *req.DateOfBirth)
		if err != nil {
			return nil, appErrors.BadRequest("Date of birth must be YYYY-MM-DD")
		}
		if dob.After(s.clock.Now()) {
			return nil, appErrors.BadRequest("Date of birth cannot be in the future")
		}
		user.DateOfBirth = &dob
	}
	if req.PhoneNumber != nil {
		phone := utils.SanitizeOptional(req.PhoneNumber, utils.SanitizePhone)
		if phone == nil || user.PhoneNumber == nil || *user.PhoneNumber != *phone {
			user.PhoneVerified = false
		}
		user.PhoneNumber = phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("Profile updated",
		logger.UserID(userID),
		logger.Event("profile_updated"),
	)

	return s.GetProfile(ctx, userID)
}

// UploadAvatar stores a new profile picture and removes the previous one.
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, r io.Reader, size int64) (*ProfileResponse, error) {
	if s.images == nil {
		return nil, appErrors.BadRequest("File uploads are not enabled")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.images.UploadImage(ctx, avatarFolder, r, size)
	if err != nil {
		return nil, err
	}

	previous := user.ProfilePictureURL
	user.ProfilePictureURL = &url
	if err := s.userRepo.Update(ctx, user); err != nil {
		_ = s.images.Delete(ctx, url)
		return nil, err
	}

	if previous != nil && *previous != "" {
		if err := s.images.Delete(ctx, *previous); err != nil {
			logger.Warn("Failed to delete previous avatar",
				logger.UserID(userID),
				zap.Error(err),
			)
		}
	}

	logger.Info("Avatar updated",
		logger.UserID(userID),
		logger.Event("avatar_updated"),
	)

	return s.GetProfile(ctx, userID)
}

func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionResponse, error) {
	sessions, err := s.sessionRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, ToSessionResponse(sess))
	}
	return out, nil
}

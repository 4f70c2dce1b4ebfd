package auth

import (
	"context"
	"errors"
	"strings"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"
	appErrors "event-ticketing/pkg/errors"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FederatedLogin signs a user in with a provider identity. An account found
// by provider id is logged in, an account found only by email gets the
// provider id linked, and otherwise a passwordless account is created.
func (s *Service) FederatedLogin(ctx context.Context, provider domainUser.Provider, profile ProviderProfile, rc RequestContext) (*AuthResult, error) {
	if strings.TrimSpace(profile.ProviderID) == "" {
		return nil, appErrors.BadRequest("Provider profile has no account id")
	}
	if profile.Email != nil {
		email := utils.SanitizeEmail(*profile.Email)
		profile.Email = &email
		if email == "" {
			profile.Email = nil
		}
	}

	u, err := s.users.GetByProviderIDOrEmail(ctx, provider, profile.ProviderID, profile.Email)
	switch {
	case errors.Is(err, domainUser.ErrUserNotFound):
		u, err = s.createFederatedUser(ctx, provider, profile)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := s.linkProvider(ctx, u, provider, profile); err != nil {
			return nil, err
		}
	}

	if u.IsBlocked() {
		logger.Warn("Federated login attempt for blocked user",
			logger.UserID(u.ID),
			zap.String("provider", string(provider)),
			logger.Event("federated_login_failed_blocked_user"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	result, err := s.startSession(ctx, u, rc)
	if err != nil {
		return nil, err
	}

	logger.Info("User logged in with provider",
		logger.UserID(u.ID),
		zap.String("provider", string(provider)),
		logger.Event("federated_login_success"),
	)

	return result, nil
}

func (s *Service) linkProvider(ctx context.Context, u *domainUser.User, provider domainUser.Provider, profile ProviderProfile) error {
	linked := u.ProviderID(provider)
	if linked != nil {
		if *linked != profile.ProviderID {
			logger.Warn("Email already linked to a different provider account",
				logger.UserID(u.ID),
				zap.String("provider", string(provider)),
				logger.Event("federated_login_failed_provider_mismatch"),
			)
			return appErrors.ErrInvalidCredentials
		}
		return nil
	}

	if err := s.users.LinkProvider(ctx, u.ID, provider, profile.ProviderID); err != nil {
		if errors.Is(err, domainUser.ErrProviderLinked) {
			return appErrors.ErrInvalidCredentials
		}
		return err
	}
	u.SetProviderID(provider, profile.ProviderID)
	u.EmailVerified = true

	logger.Info("Provider linked to existing account",
		logger.UserID(u.ID),
		zap.String("provider", string(provider)),
		logger.Event("provider_linked"),
	)

	return nil
}

func (s *Service) createFederatedUser(ctx context.Context, provider domainUser.Provider, profile ProviderProfile) (*domainUser.User, error) {
	now := s.clock.Now()
	u := &domainUser.User{
		ID:                uuid.New(),
		Email:             profile.Email,
		FirstName:         profile.FirstName,
		LastName:          profile.LastName,
		Role:              domainUser.RoleAttendee,
		Status:            domainUser.StatusActive,
		EmailVerified:     profile.Email != nil,
		ProfilePictureURL: profile.AvatarURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	u.SetProviderID(provider, profile.ProviderID)

	if err := s.users.Create(ctx, u); err != nil {
		if !errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, err
		}
		// Lost a race with a concurrent first login for the same identity.
		existing, lookupErr := s.users.GetByProviderIDOrEmail(ctx, provider, profile.ProviderID, profile.Email)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return existing, s.linkProvider(ctx, existing, provider, profile)
	}

	logger.Info("User created from provider profile",
		logger.UserID(u.ID),
		zap.String("provider", string(provider)),
		logger.Event("federated_user_created"),
	)

	return u, nil
}

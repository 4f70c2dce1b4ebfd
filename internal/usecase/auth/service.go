package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/security"
	appErrors "event-ticketing/pkg/errors"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResetLimiter throttles password reset requests per key.
type ResetLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// CodeSender delivers a reset code to the user out of band.
type CodeSender interface {
	SendResetCode(ctx context.Context, u *domainUser.User, code string, validFor time.Duration) error
}

type Dependencies struct {
	Users        domainUser.Repository
	Sessions     *SessionManager
	Tokens       *security.TokenService
	OTP          *security.OTPService
	Limiter      ResetLimiter
	Sender       CodeSender
	PasswordCost int
	Clock        security.Clock
}

// Service implements the authentication flows.
type Service struct {
	users        domainUser.Repository
	sessions     *SessionManager
	tokens       *security.TokenService
	otp          *security.OTPService
	limiter      ResetLimiter
	sender       CodeSender
	passwordCost int
	clock        security.Clock
}

func NewService(deps Dependencies) *Service {
	return &Service{
		users:        deps.Users,
		sessions:     deps.Sessions,
		tokens:       deps.Tokens,
		otp:          deps.OTP,
		limiter:      deps.Limiter,
		sender:       deps.Sender,
		passwordCost: deps.PasswordCost,
		clock:        deps.Clock,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidationError(req); err != nil {
		return err
	}

	existingUser, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		logger.Warn("Registration attempt with existing email",
			logger.Event("registration_failed_duplicate_email"),
		)
		return appErrors.ErrUserAlreadyExists
	}

	if err := checkPassword("password", req.Password); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(req.Password, s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	role := domainUser.Role(req.Role)
	if role == "" {
		role = domainUser.RoleAttendee
	}

	email := req.Email
	now := s.clock.Now()
	u := &domainUser.User{
		ID:           uuid.New(),
		Email:        &email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: &hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Status:       domainUser.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return appErrors.ErrUserAlreadyExists
		}
		return err
	}

	logger.Info("User registered successfully",
		logger.UserID(u.ID),
		zap.String("role", string(u.Role)),
		logger.Event("user_registered"),
	)

	return nil
}

// Login returns the same ErrInvalidCredentials for an unknown email, a
// blocked account, a passwordless account and a wrong password.
func (s *Service) Login(ctx context.Context, req *LoginRequest, rc RequestContext) (*AuthResult, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with non-existent email",
				logger.Event("login_failed_unknown_email"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if u.IsBlocked() {
		logger.Warn("Login attempt for blocked user",
			logger.UserID(u.ID),
			logger.Event("login_failed_blocked_user"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		logger.Warn("Login attempt with invalid password",
			logger.UserID(u.ID),
			logger.Event("login_failed_invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	result, err := s.startSession(ctx, u, rc)
	if err != nil {
		return nil, err
	}

	logger.Info("User logged in successfully",
		logger.UserID(u.ID),
		zap.String("role", string(u.Role)),
		logger.Event("login_success"),
	)

	return result, nil
}

// RefreshTokens exchanges a refresh token bound to an open session for a new
// pair and rotates the session.
func (s *Service) RefreshTokens(ctx context.Context, req *RefreshRequest, rc RequestContext) (*AuthResult, error) {
	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}

	verified, err := s.tokens.VerifyType(req.RefreshToken, security.TokenTypeRefresh)
	if err != nil {
		logger.Warn("Token refresh attempt with invalid token",
			logger.Event("token_refresh_failed_invalid_token"),
		)
		return nil, appErrors.ErrInvalidToken
	}

	if _, err := s.sessions.FindActiveSession(ctx, verified.SubjectID, req.RefreshToken); err != nil {
		switch {
		case errors.Is(err, domainUser.ErrSessionRevoked):
			logger.Warn("Token refresh attempt on closed session",
				logger.UserID(verified.SubjectID),
				logger.Event("token_refresh_failed_session_revoked"),
			)
			return nil, appErrors.ErrInvalidToken
		case errors.Is(err, domainUser.ErrSessionNotFound):
			logger.Warn("Token refresh attempt with unknown session",
				logger.UserID(verified.SubjectID),
				logger.Event("token_refresh_failed_session_not_found"),
			)
			return nil, appErrors.ErrInvalidToken
		default:
			return nil, err
		}
	}

	u, err := s.users.GetByID(ctx, verified.SubjectID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}
	if u.IsBlocked() {
		if _, err := s.sessions.Revoke(ctx, u.ID); err != nil {
			logger.Error("Failed to close sessions of blocked user",
				logger.UserID(u.ID),
				zap.Error(err),
			)
		}
		return nil, appErrors.ErrInvalidToken
	}

	result, err := s.startSession(ctx, u, rc)
	if err != nil {
		return nil, err
	}

	logger.Debug("Token refresh successfully",
		logger.UserID(u.ID),
		logger.Event("session_rotated"),
	)

	return result, nil
}

func (s *Service) Logout(ctx context.Context, principal domainUser.Principal) error {
	closed, err := s.sessions.Revoke(ctx, principal.UserID)
	if err != nil {
		return err
	}

	logger.Info("User logged out",
		logger.UserID(principal.UserID),
		zap.Int64("sessions_closed", closed),
		logger.Event("logout"),
	)

	return nil
}

func (s *Service) ChangePassword(ctx context.Context, principal domainUser.Principal, req *ChangePasswordRequest) error {
	if err := utils.ValidationError(req); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return err
	}

	if !utils.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		logger.Warn("Password change attempt with invalid current password",
			logger.UserID(u.ID),
			logger.Event("password_change_failed_invalid_password"),
		)
		return appErrors.ErrInvalidCredentials
	}

	if err := checkPassword("newPassword", req.NewPassword); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword, s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hashedPassword); err != nil {
		return err
	}

	logger.Info("Password changed successfully",
		logger.UserID(u.ID),
		logger.Event("password_change_success"),
	)

	return nil
}

// Me returns the projection of the authenticated user.
func (s *Service) Me(ctx context.Context, principal domainUser.Principal) (*UserView, error) {
	u, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	return NewUserView(u), nil
}

// startSession issues a token pair and rotates the user's session onto the
// new refresh token.
func (s *Service) startSession(ctx context.Context, u *domainUser.User, rc RequestContext) (*AuthResult, error) {
	accessToken, accessExpiresAt, err := s.tokens.IssueAccessToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	refreshToken, refreshExpiresAt, err := s.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if _, err := s.sessions.CreateSession(ctx, u.ID, refreshToken, rc); err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresAt:        accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		User:             NewUserView(u),
	}, nil
}

// checkPassword applies the strength rules to a new password. Passwords over
// bcrypt's byte limit are a field error on field.
func checkPassword(field, password string) error {
	err := utils.ValidatePassword(password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, utils.ErrPasswordTooLong):
		return appErrors.NewValidationError("Validation failed", []appErrors.FieldError{
			{Field: field, Message: err.Error()},
		}, err)
	default:
		return appErrors.NewAppError(appErrors.CodeWeakPassword, err.Error(), err)
	}
}

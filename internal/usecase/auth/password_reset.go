package auth

import (
	"context"
	"errors"
	"fmt"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/security"
	appErrors "event-ticketing/pkg/errors"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

const resetLimiterPrefix = "pwreset:"

// ForgotPassword issues a reset code for the account matching the email or
// phone number and hands it to the CodeSender. The code is never returned.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidationError(req); err != nil {
		return err
	}

	u, err := s.users.GetByEmailOrPhone(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Info("Password reset requested for unknown account",
				logger.Event("password_reset_requested_unknown_account"),
			)
			return appErrors.ErrUserNotFound
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, resetLimiterPrefix+u.ID.String())
		if err != nil {
			logger.Warn("Password reset limiter unavailable",
				logger.UserID(u.ID),
				zap.Error(err),
			)
		} else if !allowed {
			logger.Warn("Password reset rate limited",
				logger.UserID(u.ID),
				logger.Event("password_reset_rate_limited"),
			)
			return appErrors.ErrRateLimited
		}
	}

	code, err := s.otp.Generate(u.ID.String())
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	// The digest is stored only once delivery succeeded.
	if err := s.sender.SendResetCode(ctx, u, code, s.otp.Step()); err != nil {
		return fmt.Errorf("failed to deliver reset code: %w", err)
	}

	if err := s.users.SetResetCode(ctx, u.ID, security.HashSecret(code)); err != nil {
		return err
	}

	logger.Info("Password reset code issued",
		logger.UserID(u.ID),
		zap.Duration("valid_for", s.otp.Step()),
		logger.Event("password_reset_code_issued"),
	)

	return nil
}

// VerifyResetCode checks the code against both the stored digest and the
// current time step, and returns a short-lived reset token on success.
func (s *Service) VerifyResetCode(ctx context.Context, req *VerifyResetCodeRequest) (*ResetTokenResult, error) {
	if err := utils.ValidationError(req); err != nil {
		return nil, err
	}

	u, err := s.resetCandidate(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	if !s.checkResetCode(u, req.OTP) {
		return nil, appErrors.ErrInvalidToken
	}

	token, expiresAt, err := s.tokens.IssueResetToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	logger.Info("Password reset code verified",
		logger.UserID(u.ID),
		logger.Event("password_reset_code_verified"),
	)

	return &ResetTokenResult{ResetToken: token, ExpiresAt: expiresAt}, nil
}

// ResetPassword re-validates the reset code (or the reset token), stores the
// new password, clears the pending code and closes all sessions.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidationError(req); err != nil {
		return err
	}

	if err := checkPassword("newPassword", req.NewPassword); err != nil {
		return err
	}

	u, err := s.resetCandidate(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		return err
	}

	if req.OTP != "" {
		if !s.checkResetCode(u, req.OTP) {
			return appErrors.ErrInvalidToken
		}
	} else {
		verified, err := s.tokens.VerifyType(req.ResetToken, security.TokenTypeReset)
		if err != nil || verified.SubjectID != u.ID || !u.HasPendingReset() {
			logger.Warn("Password reset attempt with invalid reset token",
				logger.UserID(u.ID),
				logger.Event("password_reset_failed_invalid_token"),
			)
			return appErrors.ErrInvalidToken
		}
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword, s.passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hashedPassword); err != nil {
		return err
	}

	if _, err := s.sessions.Revoke(ctx, u.ID); err != nil {
		logger.Error("Failed to close sessions after password reset",
			logger.UserID(u.ID),
			zap.Error(err),
		)
	}

	logger.Info("Password reset successfully",
		logger.UserID(u.ID),
		logger.Event("password_reset_success"),
	)

	return nil
}

func (s *Service) resetCandidate(ctx context.Context, email, phone string) (*domainUser.User, error) {
	u, err := s.users.GetByEmailOrPhone(ctx, email, phone)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) checkResetCode(u *domainUser.User, code string) bool {
	if !security.MatchesHash(code, u.ResetCodeHash) {
		logger.Warn("Reset code does not match the issued code",
			logger.UserID(u.ID),
			logger.Event("password_reset_code_mismatch"),
		)
		return false
	}
	if !s.otp.Verify(u.ID.String(), code) {
		logger.Warn("Reset code expired",
			logger.UserID(u.ID),
			logger.Event("password_reset_code_expired"),
		)
		return false
	}
	return true
}

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"event-ticketing/internal/security"
	appErrors "event-ticketing/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) forgot(t *testing.T, email string) string {
	t.Helper()
	require.NoError(t, h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: email}))
	u, err := h.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	code, ok := h.outbox.Last(u.ID)
	require.True(t, ok, "reset code must be delivered out of band")
	return code
}

func otherCode(code string) string {
	b := []byte(code)
	b[len(b)-1] = '0' + (b[len(b)-1]-'0'+1)%10
	return string(b)
}

func TestForgotPassword_StoresDigestAndDelivers(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")

	code := h.forgot(t, "ada@example.com")
	assert.Len(t, code, 6)

	u, err := h.users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.ResetCodeHash)
	assert.NotEqual(t, code, *u.ResetCodeHash)
	assert.Equal(t, security.HashSecret(code), *u.ResetCodeHash)
}

func TestForgotPassword_ByPhone(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	phone := "+2348012345678"
	require.NoError(t, h.svc.Register(context.Background(), &RegisterRequest{
		Email: "ada@example.com", FirstName: "Ada", LastName: "Obi", PhoneNumber: &phone, Password: "Passw0rd!",
	}))

	require.NoError(t, h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{PhoneNumber: phone}))
}

func TestForgotPassword_UnknownAccount(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	err := h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)

	err = h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{})
	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeValidation, appErr.Code)
}

func TestForgotPassword_RateLimited(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")

	for i := 0; i < 3; i++ {
		require.NoError(t, h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "ada@example.com"}))
	}
	err := h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "ada@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrRateLimited)
}

func TestForgotPassword_DeliveryFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")
	h.outbox.Err = errors.New("smtp down")

	err := h.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "ada@example.com"})
	assert.Error(t, err)

	u, err := h.users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, u.HasPendingReset(), "undelivered code must not be stored")
}

func TestVerifyResetCode_Window(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")
	code := h.forgot(t, "ada@example.com")

	result, err := h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "ada@example.com", OTP: code})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ResetToken)

	_, err = h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "ada@example.com", OTP: otherCode(code)})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	_, err = h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "other@example.com", OTP: code})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	h.now = h.now.Add(5 * time.Minute)
	_, err = h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "ada@example.com", OTP: code})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "code must fail once its window has passed")
}

func TestVerifyResetCode_CodeOfAnotherUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")
	h.register(t, "bola@example.com", "Passw0rd!")

	adaCode := h.forgot(t, "ada@example.com")
	h.forgot(t, "bola@example.com")

	_, err := h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "bola@example.com", OTP: adaCode})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestVerifyResetCode_RequiresIssuedCode(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")

	u, err := h.users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)

	// A currently valid code that was never issued through ForgotPassword.
	otp, err := security.NewOTPService(security.OTPConfig{Secret: "otp-secret", Step: time.Minute, Skew: 1}, func() time.Time { return h.now })
	require.NoError(t, err)
	code, err := otp.Generate(u.ID.String())
	require.NoError(t, err)

	_, err = h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "ada@example.com", OTP: code})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestResetPassword_WithCode(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")

	session, err := h.login("ada@example.com", "Passw0rd!")
	require.NoError(t, err)

	code := h.forgot(t, "ada@example.com")
	require.NoError(t, h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "ada@example.com", NewPassword: "N3wPassw0rd!", OTP: code,
	}))

	_, err = h.login("ada@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = h.login("ada@example.com", "N3wPassw0rd!")
	assert.NoError(t, err)

	_, err = h.svc.RefreshTokens(context.Background(), &RefreshRequest{RefreshToken: session.RefreshToken}, RequestContext{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "reset closes earlier sessions")

	err = h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "ada@example.com", NewPassword: "An0therPass!", OTP: code,
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "code is single use")
}

func TestResetPassword_WithResetToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")
	h.register(t, "bola@example.com", "Passw0rd!")

	code := h.forgot(t, "ada@example.com")
	verified, err := h.svc.VerifyResetCode(context.Background(), &VerifyResetCodeRequest{Email: "ada@example.com", OTP: code})
	require.NoError(t, err)

	err = h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "bola@example.com", NewPassword: "N3wPassw0rd!", ResetToken: verified.ResetToken,
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "token is bound to its subject")

	require.NoError(t, h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "ada@example.com", NewPassword: "N3wPassw0rd!", ResetToken: verified.ResetToken,
	}))

	err = h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "ada@example.com", NewPassword: "An0therPass!", ResetToken: verified.ResetToken,
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "reset token cannot be replayed once the code is consumed")
}

func TestResetPassword_WeakPassword(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")
	code := h.forgot(t, "ada@example.com")

	err := h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "ada@example.com", NewPassword: "weakweak", OTP: code,
	})
	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeWeakPassword, appErr.Code)
}

func TestResetPassword_MultibytePasswordOverByteLimit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.register(t, "ada@example.com", "Passw0rd!")
	code := h.forgot(t, "ada@example.com")

	err := h.svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email: "ada@example.com", NewPassword: "Aa1!" + strings.Repeat("é", 68), OTP: code,
	})
	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeValidation, appErr.Code)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "newPassword", appErr.Fields[0].Field)
}

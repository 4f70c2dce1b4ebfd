package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"event-ticketing/internal/config"
	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"

	"go.uber.org/zap"
)

// LogSender records reset codes in the application log. The code itself is
// only written when exposeCode is set, which main does outside production.
type LogSender struct {
	exposeCode bool
}

func NewLogSender(exposeCode bool) *LogSender {
	return &LogSender{exposeCode: exposeCode}
}

func (s *LogSender) SendResetCode(_ context.Context, u *domainUser.User, code string, validFor time.Duration) error {
	fields := []zap.Field{
		logger.UserID(u.ID),
		zap.Duration("valid_for", validFor),
		logger.Event("password_reset_code_logged"),
	}
	if s.exposeCode {
		fields = append(fields, zap.String("code", code))
	}
	logger.Info("Password reset code ready for delivery", fields...)
	return nil
}

var ErrNoEmailAddress = errors.New("user has no email address")

// CodeSender delivers a password reset code to a user.
type CodeSender interface {
	SendResetCode(ctx context.Context, u *domainUser.User, code string, validFor time.Duration) error
}

// RoutingSender mails the code to users with an email address and hands
// everyone else to fallback.
type RoutingSender struct {
	email    CodeSender
	fallback CodeSender
}

func NewRoutingSender(email, fallback CodeSender) *RoutingSender {
	return &RoutingSender{email: email, fallback: fallback}
}

func (s *RoutingSender) SendResetCode(ctx context.Context, u *domainUser.User, code string, validFor time.Duration) error {
	if hasEmail(u) {
		return s.email.SendResetCode(ctx, u, code, validFor)
	}
	return s.fallback.SendResetCode(ctx, u, code, validFor)
}

func hasEmail(u *domainUser.User) bool {
	return u.Email != nil && *u.Email != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender mails reset codes to the account's email address.
type SMTPSender struct {
	cfg      config.SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) SendResetCode(_ context.Context, u *domainUser.User, code string, validFor time.Duration) error {
	if !hasEmail(u) {
		return fmt.Errorf("user %s: %w", u.ID, ErrNoEmailAddress)
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	msg := resetCodeMessage(s.cfg.From, *u.Email, u.FirstName, code, validFor)
	if err := s.sendMail(addr, auth, s.cfg.From, []string{*u.Email}, msg); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	logger.Info("Password reset email sent",
		logger.UserID(u.ID),
		logger.Event("password_reset_email_sent"),
	)
	return nil
}

func resetCodeMessage(from, to, name, code string, validFor time.Duration) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your password reset code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	if name != "" {
		fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	}
	fmt.Fprintf(&b, "Your password reset code is %s.\r\n", code)
	fmt.Fprintf(&b, "It expires in %s. If you did not ask for a reset you can ignore this email.\r\n", validFor)
	return []byte(b.String())
}

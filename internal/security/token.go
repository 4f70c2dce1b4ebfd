package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose selects the signing secret a token is verified against.
type Purpose string

const (
	PurposeAuth  Purpose = "auth"
	PurposeReset Purpose = "reset"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeReset   TokenType = "reset"
)

func (t TokenType) purpose() Purpose {
	if t == TokenTypeReset {
		return PurposeReset
	}
	return PurposeAuth
}

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the JWT claims issued by TokenService.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// VerifiedToken is what a successful Verify yields.
type VerifiedToken struct {
	SubjectID uuid.UUID
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenConfig struct {
	AuthSecret  string
	ResetSecret string
	Issuer      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	ResetTTL    time.Duration
}

// TokenService issues and verifies HS256 tokens. It holds no state beyond
// its configuration.
type TokenService struct {
	cfg   TokenConfig
	clock Clock
}

func NewTokenService(cfg TokenConfig, clock Clock) *TokenService {
	return &TokenService{cfg: cfg, clock: clock}
}

func (s *TokenService) IssueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	return s.issue(userID, TokenTypeAccess, s.cfg.AccessTTL)
}

func (s *TokenService) IssueRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	return s.issue(userID, TokenTypeRefresh, s.cfg.RefreshTTL)
}

// IssueResetToken mints the short-lived token handed out after a reset
// code has been verified.
func (s *TokenService) IssueResetToken(userID uuid.UUID) (string, time.Time, error) {
	return s.issue(userID, TokenTypeReset, s.cfg.ResetTTL)
}

func (s *TokenService) issue(userID uuid.UUID, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("token subject is required")
	}

	now := s.clock.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret(typ.purpose()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return signed, expiresAt, nil
}

// Verify checks signature, expiry and subject for the given purpose.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(tokenString string, purpose Purpose) (*VerifiedToken, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret(purpose), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type.purpose() != purpose {
		return nil, ErrInvalidToken
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil || subjectID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	verified := &VerifiedToken{
		SubjectID: subjectID,
		Type:      claims.Type,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}

	return verified, nil
}

// VerifyType is Verify plus a check on the token type.
func (s *TokenService) VerifyType(tokenString string, typ TokenType) (*VerifiedToken, error) {
	verified, err := s.Verify(tokenString, typ.purpose())
	if err != nil {
		return nil, err
	}
	if verified.Type != typ {
		return nil, ErrInvalidToken
	}
	return verified, nil
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*VerifiedToken, error) {
	return s.VerifyType(tokenString, TokenTypeAccess)
}

func (s *TokenService) secret(purpose Purpose) []byte {
	if purpose == PurposeReset {
		return []byte(s.cfg.ResetSecret)
	}
	return []byte(s.cfg.AuthSecret)
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/security"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const principalKey = "principal"

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*security.VerifiedToken, error)
}

// UserLoader loads the account behind a verified token.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domainUser.User, error)
}

// AuthMiddleware requires a valid bearer access token for an active user
// and attaches the caller's Principal to the context.
func AuthMiddleware(tokens TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, status, message := authenticate(c, tokens, users)
		if principal == nil {
			utils.ErrorResponse(c, status, message)
			c.Abort()
			return
		}

		c.Set(principalKey, *principal)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches a Principal when a valid token is sent
// and lets anonymous requests through.
func OptionalAuthMiddleware(tokens TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if principal, _, _ := authenticate(c, tokens, users); principal != nil {
				c.Set(principalKey, *principal)
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, tokens TokenVerifier, users UserLoader) (*domainUser.Principal, int, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, http.StatusUnauthorized, "Authorization header required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, http.StatusUnauthorized, "Invalid authorization header format"
	}

	verified, err := tokens.VerifyAccessToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}

	user, err := users.GetByID(c.Request.Context(), verified.SubjectID)
	if err != nil {
		logger.Warn("Token subject could not be loaded",
			logger.RequestID(GetRequestID(c)),
			logger.UserID(verified.SubjectID),
			zap.Error(err),
		)
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}
	if user.IsBlocked() {
		return nil, http.StatusForbidden, "Account is blocked"
	}

	return &domainUser.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, 0, ""
}

// CurrentPrincipal returns the authenticated caller, if any.
func CurrentPrincipal(c *gin.Context) (domainUser.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return domainUser.Principal{}, false
	}
	principal, ok := value.(domainUser.Principal)
	return principal, ok
}

// SetPrincipal attaches p to the context. Used by tests and internal callers.
func SetPrincipal(c *gin.Context, p domainUser.Principal) {
	c.Set(principalKey, p)
}

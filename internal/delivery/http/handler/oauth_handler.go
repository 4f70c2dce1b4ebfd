package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/infrastructure/oauth"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/usecase/auth"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// OAuthProvider is a configured federated identity provider.
type OAuthProvider interface {
	Name() domainUser.Provider
	AuthCodeURL(state, prompt string) string
	Exchange(ctx context.Context, code string) (oauth.Profile, error)
}

type FederatedAuthenticator interface {
	FederatedLogin(ctx context.Context, provider domainUser.Provider, profile auth.ProviderProfile, rc auth.RequestContext) (*auth.AuthResult, error)
}

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * 60
)

type OAuthHandler struct {
	service   FederatedAuthenticator
	providers []OAuthProvider
}

// NewOAuthHandler ignores nil providers, so unconfigured ones get no routes.
func NewOAuthHandler(service FederatedAuthenticator, providers ...OAuthProvider) *OAuthHandler {
	h := &OAuthHandler{service: service}
	for _, p := range providers {
		if p != nil {
			h.providers = append(h.providers, p)
		}
	}
	return h
}

func (h *OAuthHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/failure", h.Failure)

	for _, p := range h.providers {
		name := "/" + string(p.Name())
		// The state cookie is scoped to the provider prefix so the callback receives it.
		cookiePath := group.BasePath() + name
		group.GET(name, h.redirect(p, "", cookiePath))
		group.GET(name+"/callback", h.callback(p, cookiePath))
		if p.Name() == domainUser.ProviderGoogle {
			group.GET(name+"/switch", h.redirect(p, "select_account", cookiePath))
		}
	}
}

func (h *OAuthHandler) redirect(p OAuthProvider, forcePrompt, cookiePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := c.Query("state")
		if state == "" {
			state = ksuid.New().String()
		}
		setStateCookie(c, state, oauthStateMaxAge, cookiePath)

		prompt := forcePrompt
		if prompt == "" && p.Name() == domainUser.ProviderGoogle {
			prompt = c.Query("prompt")
		}

		c.Redirect(http.StatusFound, p.AuthCodeURL(state, prompt))
	}
}

func (h *OAuthHandler) callback(p OAuthProvider, cookiePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected, _ := c.Cookie(oauthStateCookie)
		setStateCookie(c, "", -1, cookiePath)

		if providerErr := c.Query("error"); providerErr != "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication failed: "+providerErr)
			return
		}

		state := c.Query("state")
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
			logger.Warn("OAuth callback with mismatched state",
				zap.String("provider", string(p.Name())),
				logger.Event("oauth_state_mismatch"),
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid OAuth state")
			return
		}

		profile, err := p.Exchange(c.Request.Context(), c.Query("code"))
		if err != nil {
			if errors.Is(err, oauth.ErrMissingCode) {
				utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
				return
			}
			logger.Warn("OAuth exchange failed",
				zap.String("provider", string(p.Name())),
				zap.Error(err),
				logger.Event("oauth_exchange_failed"),
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication failed")
			return
		}

		result, err := h.service.FederatedLogin(c.Request.Context(), p.Name(), auth.ProviderProfile{
			ProviderID: profile.ID,
			Email:      profile.Email,
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			AvatarURL:  profile.AvatarURL,
		}, requestContext(c))
		if err != nil {
			respondWithError(c, err)
			return
		}

		utils.SuccessWithFields(c, http.StatusOK, "Login successful", authBody(result))
	}
}

func (h *OAuthHandler) Failure(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		message = "Authentication failed"
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"success":    false,
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"error":      c.Query("error"),
	})
}

func setStateCookie(c *gin.Context, value string, maxAge int, path string) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, value, maxAge, path, "", secure, true)
}

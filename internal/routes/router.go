package routes

import (
	"event-ticketing/internal/config"
	"event-ticketing/internal/delivery/http/handler"
	"event-ticketing/internal/infrastructure/storage"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/middleware"
	"event-ticketing/internal/usecase/auth"
	"event-ticketing/internal/usecase/event"
	"event-ticketing/internal/usecase/ticket"
	"event-ticketing/internal/usecase/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxMultipartMemory = 32 << 20

// Dependencies are the wired services the HTTP layer serves.
type Dependencies struct {
	Tokens middleware.TokenVerifier
	Users  middleware.UserLoader

	Auth     *auth.Service
	Profiles *user.Service
	Events   *event.Service
	Tickets  *ticket.Service

	OAuthProviders []handler.OAuthProvider
	HealthChecks   map[string]handler.HealthCheck

	// AttachmentDir is served at /attachment when set (local storage backend).
	AttachmentDir string

	GeneralLimiter *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter
}

func SetupRoutes(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory

	// Order: request ID, recovery, logging, security headers, CORS, body size, general rate limit.
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware("/health", storage.AttachmentRoute+"/*filepath"))
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	router.Use(middleware.CORSMiddleware(cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(requestSizeLimit(cfg)))
	if deps.GeneralLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(deps.GeneralLimiter, "general"))
	}

	router.GET("/health", handler.NewHealthHandler(deps.HealthChecks).Health)
	if deps.AttachmentDir != "" {
		router.Static(storage.AttachmentRoute, deps.AttachmentDir)
	}

	requireAuth := middleware.AuthMiddleware(deps.Tokens, deps.Users)
	optionalAuth := middleware.OptionalAuthMiddleware(deps.Tokens, deps.Users)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		if deps.AuthLimiter != nil {
			authGroup.Use(middleware.RateLimitMiddleware(deps.AuthLimiter, "auth"))
		}
		handler.NewAuthHandler(deps.Auth).RegisterRoutes(authGroup, requireAuth)
		handler.NewOAuthHandler(deps.Auth, deps.OAuthProviders...).RegisterRoutes(authGroup)

		handler.NewUserHandler(deps.Profiles).RegisterRoutes(api.Group("/users", requireAuth))
		handler.NewEventHandler(deps.Events).RegisterRoutes(api.Group("/events"), requireAuth, optionalAuth)
		handler.NewTicketHandler(deps.Tickets).RegisterRoutes(api.Group("/tickets", requireAuth))
	}

	logger.Info("All routes initialized",
		zap.Int("oauth_providers", len(deps.OAuthProviders)),
		zap.Bool("attachments", deps.AttachmentDir != ""),
	)
	return router
}

// requestSizeLimit leaves room for the largest allowed multipart upload.
func requestSizeLimit(cfg *config.Config) int64 {
	limit := int64(middleware.DefaultMaxRequestSize)
	if upload := cfg.Storage.MaxUploadSize * 6; upload > limit {
		limit = upload
	}
	return limit
}

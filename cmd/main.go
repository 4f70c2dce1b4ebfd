package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-ticketing/internal/config"
	"event-ticketing/internal/delivery/http/handler"
	"event-ticketing/internal/infrastructure/cache"
	"event-ticketing/internal/infrastructure/database/postgres"
	"event-ticketing/internal/infrastructure/notify"
	"event-ticketing/internal/infrastructure/oauth"
	"event-ticketing/internal/infrastructure/storage"
	"event-ticketing/internal/jobs"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/middleware"
	"event-ticketing/internal/routes"
	"event-ticketing/internal/security"
	"event-ticketing/internal/usecase/auth"
	"event-ticketing/internal/usecase/event"
	"event-ticketing/internal/usecase/ticket"
	"event-ticketing/internal/usecase/user"
	"event-ticketing/pkg/mqtt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration: "+err.Error())
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger: "+err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting application", zap.String("environment", cfg.Server.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	clock := security.Clock(security.SystemClock)
	healthChecks := map[string]handler.HealthCheck{"database": db.Health}

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)

	var resetLimiter auth.ResetLimiter
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()

		resetLimiter = cache.NewFixedWindowLimiter(redisClient, "reset", cfg.Redis.ResetRequestLimit, cfg.Redis.ResetRequestWindow)
		healthChecks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, redisClient) }
	}

	images, attachmentDir, err := newImageStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	var sender auth.CodeSender = notify.NewLogSender(!cfg.IsProduction())
	if cfg.SMTP.Enabled() {
		sender = notify.NewRoutingSender(notify.NewSMTPSender(cfg.SMTP), sender)
	}

	var publisher event.StatusPublisher = notify.NoopPublisher{}
	if cfg.MQTT.Enabled() {
		client := mqtt.NewClient(mqtt.DefaultConfig(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Username, cfg.MQTT.Password))
		if err := client.Connect(); err != nil {
			logger.Warn("MQTT broker unavailable, status changes will not be published", zap.Error(err))
		} else {
			defer client.Disconnect()
			publisher = notify.NewEventPublisher(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS)
		}
	}

	tokens := security.NewTokenService(security.TokenConfig{
		AuthSecret:  cfg.JWT.AccessSecret,
		ResetSecret: cfg.JWT.ResetSecret,
		Issuer:      cfg.JWT.Issuer,
		AccessTTL:   cfg.JWT.AccessTTL,
		RefreshTTL:  cfg.JWT.RefreshTTL,
		ResetTTL:    cfg.JWT.ResetTTL,
	}, clock)
	otp, err := security.NewOTPService(security.OTPConfig{
		Secret: cfg.OTP.Secret,
		Step:   cfg.OTP.Step,
		Skew:   cfg.OTP.Skew,
		Digits: cfg.OTP.Digits,
	}, clock)
	if err != nil {
		logger.Fatal("Failed to initialize OTP service", zap.Error(err))
	}

	authService := auth.NewService(auth.Dependencies{
		Users:        userRepo,
		Sessions:     auth.NewSessionManager(sessionRepo, clock),
		Tokens:       tokens,
		OTP:          otp,
		Limiter:      resetLimiter,
		Sender:       sender,
		PasswordCost: cfg.Password.BcryptCost,
		Clock:        clock,
	})
	eventService := event.NewService(eventRepo, images, publisher, clock)
	ticketService := ticket.NewService(ticketRepo, clock)
	userService := user.NewService(userRepo, sessionRepo, ticketRepo, images, clock)

	var providers []handler.OAuthProvider
	if cfg.OAuth.Google.Enabled() {
		providers = append(providers, oauth.NewGoogle(cfg.OAuth.Google))
	}
	if cfg.OAuth.Facebook.Enabled() {
		providers = append(providers, oauth.NewFacebook(cfg.OAuth.Facebook))
	}

	generalLimiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	go generalLimiter.RunCleanup(ctx, 10*time.Minute)
	go authLimiter.RunCleanup(ctx, 10*time.Minute)

	router := routes.SetupRoutes(cfg, routes.Dependencies{
		Tokens:         tokens,
		Users:          userRepo,
		Auth:           authService,
		Profiles:       userService,
		Events:         eventService,
		Tickets:        ticketService,
		OAuthProviders: providers,
		HealthChecks:   healthChecks,
		AttachmentDir:  attachmentDir,
		GeneralLimiter: generalLimiter,
		AuthLimiter:    authLimiter,
	})

	scheduler := jobs.NewScheduler(cfg.Jobs, sessionRepo, eventService)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start background jobs", zap.Error(err))
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// newImageStore selects the storage backend. The returned directory is
// non-empty when files must be served from local disk.
func newImageStore(ctx context.Context, cfg *config.Config) (*storage.Service, string, error) {
	switch cfg.Storage.Backend {
	case "s3":
		backend, err := storage.NewS3Backend(cfg.Storage)
		if err != nil {
			return nil, "", err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, "", err
		}
		return storage.NewService(backend, cfg.Server.BaseURL, cfg.Storage.MaxUploadSize), "", nil
	default:
		backend, err := storage.NewLocalBackend(cfg.Storage.LocalDir, cfg.Server.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return storage.NewService(backend, cfg.Server.BaseURL, cfg.Storage.MaxUploadSize), backend.Dir(), nil
	}
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/academy-system/bootstrap"
	"github.com/Dosada05/academy-system/cache"
	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/config"
	"github.com/Dosada05/academy-system/db"
	"github.com/Dosada05/academy-system/handlers"
	"github.com/Dosada05/academy-system/realtime"
	"github.com/Dosada05/academy-system/repositories"
	api "github.com/Dosada05/academy-system/routes"
	"github.com/Dosada05/academy-system/services"
	"github.com/Dosada05/academy-system/storage"
	"github.com/go-chi/chi/v5"
)

const (
	publicPlayersTTL = 5 * time.Minute
	shutdownTimeout  = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("env", cfg.Environment))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.New()

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	coachRepo := repositories.NewPostgresCoachRepository(dbConn)
	newsRepo := repositories.NewPostgresNewsRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)

	authService := services.NewAuthService(settingsRepo, cfg.JWTSecretKey, clk, logger)

	startup := bootstrap.New(cfg, func(ctx context.Context) ([]string, error) {
		return db.Migrate(ctx, dbConn, logger)
	}, authService, logger)
	if err := startup.Run(ctx); err != nil {
		logger.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Загрузка медиа отключена, пока R2 не настроен
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, media uploads are disabled")
	}

	var playerCache cache.PlayerCache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL, publicPlayersTTL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		playerCache = redisCache
		logger.Info("redis cache enabled")
	}
	defer playerCache.Close()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("WebSocket Hub started")

	var notifier services.RegistrationNotifier
	if cfg.SMTPEnabled() {
		notifier = services.NewEmailService(cfg, "")
	}

	playerService := services.NewPlayerService(playerRepo, playerCache, clk, logger)
	subscriptionService := services.NewSubscriptionService(playerRepo, hub, clk, logger)
	registrationService := services.NewRegistrationService(registrationRepo, playerService, notifier, hub, clk, logger)
	coachService := services.NewCoachService(coachRepo)
	newsService := services.NewNewsService(newsRepo, clk)
	settingsService := services.NewSettingsService(settingsRepo, authService)
	mediaService := services.NewMediaService(uploader, clk)
	dashboardService := services.NewDashboardService(playerRepo, coachRepo, newsRepo, registrationRepo, subscriptionService)
	logger.Info("services initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.IsProduction()),
		Player:       handlers.NewPlayerHandler(playerService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Coach:        handlers.NewCoachHandler(coachService),
		News:         handlers.NewNewsHandler(newsService),
		Settings:     handlers.NewSettingsHandler(settingsService),
		Upload:       handlers.NewUploadHandler(mediaService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
		Health:       handlers.NewHealthHandler(dbConn),
		WebSocket:    handlers.NewWebSocketHandler(hub),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		Logger:         logger,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

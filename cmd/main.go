package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/bilgisen/signage/internal/api"
	"github.com/bilgisen/signage/internal/calendar"
	"github.com/bilgisen/signage/internal/config"
	"github.com/bilgisen/signage/internal/content"
	"github.com/bilgisen/signage/internal/display"
	"github.com/bilgisen/signage/internal/feed"
	"github.com/bilgisen/signage/internal/logger"
	"github.com/bilgisen/signage/internal/metrics"
	"github.com/bilgisen/signage/internal/middleware"
	"github.com/bilgisen/signage/internal/notice"
	"github.com/bilgisen/signage/internal/scheduler"
	"github.com/bilgisen/signage/internal/storage"
	"github.com/bilgisen/signage/internal/uploads"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogFile,
		Pretty: cfg.LogPretty,
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Str("env", cfg.Env).Msg("Starting application...")

	if cfg.AdminAPIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY is not set, admin routes are unprotected")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Redis is optional: it backs the redis store and the cross instance refresh relay
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := storage.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		redisClient = client
	}

	var repo storage.Repository
	switch cfg.StoreBackend {
	case config.StoreRedis:
		repo = storage.NewRedisStore(redisClient, cfg.RedisPrefix)
	default:
		fileStore, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("Failed to initialize file store")
		}
		repo = fileStore
		if redisClient != nil {
			defer redisClient.Close()
		}
	}
	defer func() {
		log.Info().Msg("Closing store...")
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing store")
		}
	}()
	log.Info().Str("backend", cfg.StoreBackend).Msg("Store ready")

	loc := cfg.Location()

	// Content sources
	notices := notice.NewReader(repo, loc, *log)
	feeds := feed.NewFetcher(
		cfg.FetchTimeout,
		feed.NewNormalizer(feed.NewImageRepairer(cfg.ImageRepairPatterns), loc),
		*log,
	)
	events := calendar.NewFetcher(calendar.Options{
		APIKey:   cfg.CalendarAPIKey,
		BaseURL:  cfg.CalendarBaseURL,
		Horizon:  time.Duration(cfg.CalendarHorizonDays) * 24 * time.Hour,
		Timeout:  cfg.FetchTimeout,
		Location: loc,
	}, *log)
	assembler := content.NewAssembler(notices, feeds, events, *log)

	// Display refresh channel
	hub := display.NewHub(*log)
	var notifier display.Notifier = hub
	if redisClient != nil {
		relay := display.NewRedisRelay(redisClient, cfg.RefreshChannel, hub, *log)
		notifier = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Refresh relay stopped")
			}
		}()
	}

	// Notice images
	var images uploads.ImageStore
	routeCfg := api.RouteConfig{AdminAPIKey: cfg.AdminAPIKey}
	switch cfg.UploadBackend {
	case config.UploadR2:
		r2, err := uploads.NewR2Store(ctx, uploads.R2Config{
			Endpoint:  cfg.R2EndpointURL(),
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			PublicURL: cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 client")
		}
		images = r2
	default:
		local, err := uploads.NewLocalStore(cfg.UploadsDir, cfg.PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.UploadsDir).Msg("Failed to initialize uploads directory")
		}
		images = local
		routeCfg.UploadsDir = local.Dir()
	}

	var sched *scheduler.Scheduler
	if cfg.RefreshCron != "" {
		s, err := scheduler.New(cfg.RefreshCron, notifier, *log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create refresh scheduler")
		}
		sched = s
		sched.Start()
	}

	handlers := api.NewHandlers(api.Deps{
		Repo:           repo,
		Aggregator:     assembler,
		Hub:            hub,
		Notifier:       notifier,
		Images:         images,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Location:       loc,
		Log:            *log,
	})

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
		ErrorHandler: middleware.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api.SetupRoutes(app, handlers, routeCfg)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Displays hold open websockets, close them before draining the server
	hub.Shutdown()
	if sched != nil {
		sched.Stop()
	}
	stop()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsAdapter "github.com/Abdurahmanit/realestate-listings/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/realestate-listings/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/realestate-listings/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/realestate-listings/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/realestate-listings/internal/adapter/web"
	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	"github.com/Abdurahmanit/realestate-listings/internal/config"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	listingUsecase "github.com/Abdurahmanit/realestate-listings/internal/listing/usecase"
	"github.com/Abdurahmanit/realestate-listings/internal/mailer"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/metrics"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/tracer"
	userUsecase "github.com/Abdurahmanit/realestate-listings/internal/user/usecase"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const notifierQueue = "listing-mailer"

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred cleanup has run.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so fall back to the default one.
		logger.NewLogger(nil).Fatal("Failed to load configuration", zap.Error(err))
	}

	appLogger := logger.NewLogger(&logger.LoggerConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: logger.DefaultConfig().OutputFile,
	})
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Application starting...",
		zap.String("service_name", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.Bool("nats_enabled", cfg.NATSURL != ""),
		zap.Bool("photo_storage_enabled", cfg.PhotoStorageEnabled()),
		zap.Bool("mail_enabled", cfg.MailEnabled()),
	)
	if cfg.UsesDefaultSessionSecret() {
		appLogger.Warn("SESSION_SECRET is the built-in development value; set it before exposing the server")
	}

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Error("Failed to connect to MongoDB", zap.Error(err))
		return 1
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := mongoClient.Ping(ctxPing, nil); err != nil {
		cancelPing()
		appLogger.Error("Failed to ping MongoDB", zap.Error(err))
		return 1
	}
	cancelPing()
	appLogger.Info("Successfully connected and pinged MongoDB")
	db := mongoClient.Database(cfg.MongoDatabase)

	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize ListingRepository", zap.Error(err))
		return 1
	}
	userRepo, err := mongoRepo.NewUserRepository(db, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize UserRepository", zap.Error(err))
		return 1
	}

	ctxRedis, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := cache.NewRedisClient(ctxRedis, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	cancelRedis()
	if err != nil {
		appLogger.Error("Failed to connect to Redis", zap.Error(err))
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	listingCache := cache.NewListingCache(redisClient, cfg.CacheTTL, appLogger)
	sessionStore := cache.NewSessionStore(redisClient)

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)

	deps := listingUsecase.Deps{Cache: listingCache, Metrics: metricsManager}

	userUC := userUsecase.NewUserUsecase(userRepo, appLogger)

	if cfg.NATSURL != "" {
		natsConn, err := natsAdapter.Connect(cfg.NATSURL, cfg.ServiceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", zap.Error(err))
			return 1
		}
		publisher := natsAdapter.NewPublisher(natsConn, appLogger)
		defer publisher.Close()
		deps.Events = publisher

		if cfg.MailEnabled() {
			smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender, appLogger)
			notifier := mailer.NewListingCreatedNotifier(userUC, smtpMailer, appLogger)
			subscriber := natsAdapter.NewSubscriber(natsConn, appLogger)
			if err := subscriber.Subscribe(listingUsecase.SubjectListingCreated, notifierQueue, notifier.Handle); err != nil {
				appLogger.Error("Failed to subscribe listing notifier", zap.Error(err))
				return 1
			}
			// Runs before publisher.Close drains the shared connection.
			defer subscriber.Close()
		} else {
			appLogger.Info("Listing e-mail notifications disabled (SMTP_SENDER not set)")
		}
	} else {
		appLogger.Info("Event publishing disabled (NATS_URL not set)")
	}

	listingUC := listingUsecase.NewListingUsecase(listingRepo, deps, appLogger)
	favoriteUC := listingUsecase.NewFavoriteUsecase(listingRepo, deps, appLogger)

	var photoStorage domain.Storage
	if cfg.PhotoStorageEnabled() {
		ctxS3, cancelS3 := context.WithTimeout(context.Background(), 10*time.Second)
		s3Storage, err := s3.NewS3Storage(ctxS3, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
		cancelS3()
		if err != nil {
			appLogger.Error("Failed to initialize photo storage", zap.Error(err))
			return 1
		}
		photoStorage = s3Storage
	} else {
		appLogger.Info("Photo uploads disabled (MINIO_ENDPOINT not set)")
	}
	photoUC := listingUsecase.NewPhotoUsecase(photoStorage, listingUC, appLogger)

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, sessionStore, appLogger)

	router, err := web.NewRouter(web.RouterDeps{
		ServiceName: cfg.ServiceName,
		Listings:    listingUC,
		Favorites:   favoriteUC,
		Photos:      photoUC,
		Users:       userUC,
		Sessions:    sessions,
		Health: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		},
		Metrics:      metricsManager,
		SecureCookie: cfg.CookieSecure,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Error("Failed to build HTTP router", zap.Error(err))
		return 1
	}

	httpServer, shutdownHTTP := web.NewHTTPServer(cfg.HTTPPort, cfg.ReadTimeout, cfg.WriteTimeout, router, appLogger)
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	metricsServer := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	exitCode := waitForShutdown(quit, serverErr, appLogger)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	shutdownHTTP(ctxShutdown)
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("Prometheus metrics server shutdown failed", zap.Error(err))
		}
	}

	appLogger.Info("Application shutting down...")
	return exitCode
}

// waitForShutdown blocks until a signal arrives or the HTTP server fails.
func waitForShutdown(quit <-chan os.Signal, serverErr <-chan error, log *logger.Logger) int {
	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		return 0
	case err := <-serverErr:
		log.Error("HTTP server ListenAndServe error", zap.Error(err))
		return 1
	}
}

// @title DevEvents API
// @version 1.0
// @description Developer event listings and bookings.
// @BasePath /
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"devevents/config"
	_ "devevents/docs"
	"devevents/internal/adapters/email"
	"devevents/internal/adapters/storage"
	"devevents/internal/database"
	deliveryhttp "devevents/internal/delivery/http"
	"devevents/internal/delivery/http/controllers"
	"devevents/internal/domain"
	"devevents/internal/repository/cache"
	"devevents/internal/repository/postgres"
	"devevents/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// The pool connects on first use so the process can start before the database is reachable.
	manager := database.NewManager(database.Config{
		URL:                    cfg.DB.URL,
		MaxPoolSize:            cfg.DB.MaxPoolSize,
		ServerSelectionTimeout: cfg.DB.ServerSelectionTimeout,
		SocketTimeout:          cfg.DB.SocketTimeout,
	}, database.WithOnConnect(postgres.ApplySchema), database.WithLogger(logger))
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	var eventRepo domain.EventRepository = postgres.NewEventRepository(manager)
	bookingRepo := postgres.NewBookingRepository(manager)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, event reads go straight to the database until it recovers", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		eventRepo = cache.NewEventRepository(eventRepo, client, cfg.Redis.TTL, logger)
		logger.Info("event cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	images, err := storage.NewMinIOStore(storage.MinIOConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
		PublicURL: cfg.MinIO.PublicURL,
	}, logger)
	if err != nil {
		return err
	}
	bucketCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := images.EnsureBucket(bucketCtx); err != nil {
		logger.Warn("image bucket not ready", "bucket", cfg.MinIO.Bucket, "error", err)
	}
	cancel()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			Endpoint:           cfg.Email.SESEndpoint,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	eventService := services.NewEventService(eventRepo, logger, cfg.ContextTimeout)
	bookingService := services.NewBookingService(bookingRepo, eventRepo, emailService, cfg.BaseURL, logger, cfg.ContextTimeout)

	router := deliveryhttp.NewRouter(logger, deliveryhttp.Controllers{
		Events:   controllers.NewEventController(logger, eventService, bookingService, images),
		Bookings: controllers.NewBookingController(logger, bookingService),
		Health:   controllers.NewHealthController(logger, manager),
	}, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
	return nil
}

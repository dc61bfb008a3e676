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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/profhack/profhack-backend/config"
	"github.com/profhack/profhack-backend/db"
	"github.com/profhack/profhack-backend/handlers"
	"github.com/profhack/profhack-backend/realtime"
	"github.com/profhack/profhack-backend/repositories"
	api "github.com/profhack/profhack-backend/routes"
	"github.com/profhack/profhack-backend/services"
	"github.com/profhack/profhack-backend/storage"
)

const (
	sweeperInterval = 10 * time.Minute
	invitationTTL   = 7 * 24 * time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	uploader, err := storage.NewS3Uploader(storage.S3UploaderConfig{
		AccountID:       cfg.StorageAccountID,
		AccessKeyID:     cfg.StorageAccessKeyID,
		SecretAccessKey: cfg.StorageSecretAccessKey,
		BucketName:      cfg.StorageBucketName,
		PublicBaseURL:   cfg.StoragePublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize storage uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("storage uploader initialized")

	hub := realtime.NewHub()
	go hub.Run()
	logger.Info("notification hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	otpRepo := repositories.NewPostgresOTPRepository(dbConn)
	logger.Info("repositories initialized")

	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, otpRepo)
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, hub)
	teamService := services.NewTeamService(teamRepo, userRepo, invitationRepo, notificationService, logger)
	invitationService := services.NewInvitationService(invitationRepo, teamService, userRepo, notificationService, logger)
	submissionService := services.NewSubmissionService(submissionRepo, teamService, teamRepo, uploader, notificationService, logger)
	logger.Info("services initialized")

	// Expired invitations and stale OTP codes are cleaned up in the
	// background so pending lists stay current without request-path work.
	go func() {
		ticker := time.NewTicker(sweeperInterval)
		defer ticker.Stop()
		logger.Info("expiry sweeper started", slog.Duration("interval", sweeperInterval))

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

			if n, err := invitationRepo.DeleteExpired(ctx, invitationTTL); err != nil {
				logger.Error("sweeper: failed to delete expired invitations", slog.Any("error", err))
			} else if n > 0 {
				logger.Info("sweeper: expired invitations removed", slog.Int64("count", n))
			}

			if n, err := otpRepo.DeleteExpired(ctx); err != nil {
				logger.Error("sweeper: failed to delete expired codes", slog.Any("error", err))
			} else if n > 0 {
				logger.Info("sweeper: expired codes removed", slog.Int64("count", n))
			}

			cancel()
		}
	}()

	authHandler := handlers.NewAuthHandler(authService, emailService, cfg.JWTSecretKey, logger)
	userHandler := handlers.NewUserHandler(userService, invitationService)
	teamHandler := handlers.NewTeamHandler(teamService, emailService, userService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Config{
		JWTSecret:     []byte(cfg.JWTSecretKey),
		AllowedOrigin: cfg.PublicURL,
		Auth:          authHandler,
		User:          userHandler,
		Team:          teamHandler,
		Notification:  notificationHandler,
		Submission:    submissionHandler,
		WebSocket:     webSocketHandler,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

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

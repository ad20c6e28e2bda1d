package main

import (
	"alcyxob/dojo-app/internal/api"
	"alcyxob/dojo-app/internal/config"
	"alcyxob/dojo-app/internal/live"
	"alcyxob/dojo-app/internal/notify"
	"alcyxob/dojo-app/internal/reminder"
	"alcyxob/dojo-app/internal/repository/mongo"
	"alcyxob/dojo-app/internal/service"
	"alcyxob/dojo-app/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Info().Msg("Starting Dojo App free-session server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not load config")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not connect to MongoDB")
	}
	defer func() {
		logger.Info().Msg("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info().Str("database", cfg.Database.Name).Msg("Database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("free_sessions"))
		mongo.EnsureParticipantIndexes(ctx, appDB.Collection("free_session_participants"))
		mongo.EnsureMemberIndexes(ctx, appDB.Collection("members"))
		logger.Info().Msg("Index creation process completed")
	}()

	// --- Initialize Repositories ---
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	participantRepo := mongo.NewMongoParticipantRepository(appDB)
	memberRepo := mongo.NewMongoMemberRepository(appDB)

	// --- Initialize Archive Storage (optional) ---
	var archiver storage.SessionArchiver
	if cfg.Archive.Enabled {
		archiver, err = storage.NewS3Archiver(cfg.Archive)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize S3 archive storage")
		}
		logger.Info().Str("bucket", cfg.Archive.BucketName).Msg("Session archiving enabled")
	}

	// --- Initialize Reminder Stack ---
	notifier := notify.NewLogNotifier(logger)
	alarms := reminder.NewTimerAlarms(func(r reminder.Reminder) {
		notifier.Deliver(notify.Build(r))
	})
	defer alarms.Stop()

	registry := reminder.NewFileRegistry(cfg.Reminders.RegistryPath)
	prefs := reminder.PreferenceFunc(func() bool { return cfg.Reminders.Enabled })
	scheduler := reminder.NewScheduler(alarms, registry, prefs, logger)

	// --- Initialize Services ---
	sessionService := service.NewSessionService(sessionRepo, participantRepo, memberRepo, archiver, scheduler, logger)
	liveService := live.NewService(sessionRepo, participantRepo, logger)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, sessionService, liveService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the SSE stream endpoints hold their responses open.
		IdleTimeout: 120 * time.Second,
	}

	logger.Info().Str("address", cfg.Server.Address).Msg("Server starting")

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exiting")
}

package main

import (
	"context"
	"log"
	"strings"

	api "geotask-backend/cmd/api"
	"geotask-backend/internal/geofence"
	"geotask-backend/internal/notification"
	"geotask-backend/internal/position"
	"geotask-backend/internal/reminder"
	taskdomain "geotask-backend/internal/task/domain"
	taskRepo "geotask-backend/internal/task/repository"
	taskUsecasePkg "geotask-backend/internal/task/usecase"
	"geotask-backend/pkg/config"
	"geotask-backend/pkg/database"
	"geotask-backend/pkg/fcm"
	"geotask-backend/pkg/geo"

	"github.com/jmhodges/clock"
)

// positionRequesterAdapter adapts the FCM client to position.Requester:
// a silent data command asking devices for a fresh fix
type positionRequesterAdapter struct {
	client *fcm.Client
	tokens notification.TokenRepository
}

func (a *positionRequesterAdapter) RequestPosition(ctx context.Context) error {
	tokens, err := a.tokens.Tokens()
	if err != nil {
		return err
	}
	_, err = a.client.SendDataToDevices(ctx, tokens, map[string]string{
		"action": "position_request",
	})
	return err
}

// nopProvider stands in for the geofence provider when push delivery is not
// configured. Zones are tracked locally so validation still works against
// events arriving over HTTP.
type nopProvider struct{}

func (nopProvider) Register(ctx context.Context, taskID int64, center geo.Point, radiusMeters float64) (geofence.Handle, error) {
	return geofence.Handle("local"), nil
}

func (nopProvider) Unregister(ctx context.Context, taskID int64) error {
	return nil
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&taskdomain.Task{}, &notification.DeviceToken{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	tokenRepository := notification.NewTokenRepository(db)

	// Initialize FCM Client (optional, the engine runs without push delivery)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push delivery disabled): %v", err)
			fcmClient = nil
		}
	} else {
		log.Println("[WARN] No Firebase credentials configured, push delivery disabled")
	}

	// Geofence provider: zone arm/disarm commands go out over FCM when
	// available, otherwise zones are tracked locally only
	var provider geofence.Provider = nopProvider{}
	var requester position.Requester
	var pusher notification.Pusher
	if fcmClient != nil {
		provider = geofence.NewFCMProvider(tokenRepository, fcmClient)
		requester = &positionRequesterAdapter{client: fcmClient, tokens: tokenRepository}
		pusher = fcmClient
	}

	tracker := position.NewTracker(requester)
	registry := geofence.NewRegistry(provider)
	dispatcher := notification.NewDispatcher(pusher, tokenRepository, notification.EnabledFlag(cfg.NotificationsEnabled))

	validator := geofence.NewValidator(registry, taskRepository, tracker, dispatcher)
	validator.SetPositionTimeout(cfg.PositionTimeout)

	// Initialize the reminder scheduler and its safety-net sweep
	scheduler := reminder.NewScheduler(taskRepository, dispatcher, clock.New())
	scheduler.SetSweepInterval(cfg.SweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize use cases (dependency injection)
	taskUsecase := taskUsecasePkg.NewTaskUsecase(taskRepository)
	taskUsecase.SetGeofenceSyncer(registry)
	taskUsecase.SetReminderScheduler(scheduler)
	taskUsecase.SetNotificationCanceller(dispatcher)

	// Startup recovery: one-shot units and zone registrations do not survive
	// a restart, rebuild them from the store
	if err := taskUsecase.RecoverTriggers(context.Background()); err != nil {
		log.Printf("[ERROR] Trigger recovery failed: %v", err)
	}

	// Initialize transition event ingestion over Pub/Sub
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GeofenceEventsTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		eventService, err := geofence.NewEventService(cfg.GoogleProjectID, topicName, validator, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize event service: %v", err)
		} else {
			go eventService.Start(context.Background())
		}
	} else {
		log.Println("[WARN] GoogleProjectID not configured, Pub/Sub event ingestion disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(taskUsecase, tokenRepository, tracker, validator, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "kanban-mail-backend/cmd/api"
	authdomain "kanban-mail-backend/internal/auth/domain"
	authRepo "kanban-mail-backend/internal/auth/repository"
	authUsecase "kanban-mail-backend/internal/auth/usecase"
	kanbandomain "kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/internal/kanban/scheduler"
	kanbanUsecase "kanban-mail-backend/internal/kanban/usecase"
	"kanban-mail-backend/internal/notification"
	"kanban-mail-backend/pkg/ai"
	"kanban-mail-backend/pkg/config"
	"kanban-mail-backend/pkg/database"
	"kanban-mail-backend/pkg/fcm"
	"kanban-mail-backend/pkg/gmail"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.FCMToken{}, &kanbandomain.KanbanItem{}, &kanbandomain.UserSettings{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	settings := api.NewRuntimeSettings(ai.ProviderType(cfg.AIProvider), cfg.OllamaBaseURL, cfg.OllamaModel)

	kanban := api.BuildKanban(ctx, cfg, db, userRepo, gmailService, settings)
	uc := kanban.Usecase

	// Board events
	if cfg.NATSURL != "" {
		publisher, err := notification.NewPublisher(cfg.NATSURL, cfg.NATSStream)
		if err != nil {
			log.Printf("[WARN] NATS unavailable, board events disabled: %v", err)
		} else {
			defer publisher.Close()
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Printf("[WARN] Failed to ensure event stream: %v", err)
			}
			uc.SetEventPublisher(publisher)
		}
	} else {
		log.Println("[WARN] NATS_URL not configured, board events disabled")
	}

	// Background embeddings
	if kanban.CanEmbed() {
		worker := kanbanUsecase.NewEmbeddingWorker(uc, cfg.EmbeddingWorkers)
		worker.Start()
		defer worker.Stop()
		uc.SetEmbeddingQueue(worker)
		log.Println("Embedding worker started")
	}

	// FCM is optional, wake notifications are skipped without it
	var notifier scheduler.WakeNotifier
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			notifier = notification.NewWakeNotifier(fcmTokenRepo, fcmClient)
		}
	}

	snoozeScheduler := scheduler.NewSnoozeScheduler(uc, notifier, cfg.SnoozeSweepInterval, cfg.SnoozeBatchSize)
	snoozeScheduler.Start()
	defer snoozeScheduler.Stop()

	// Gmail push notifications (Pub/Sub)
	if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" {
		listener, err := notification.NewGmailPushListener(ctx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials, userRepo, uc)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize push listener: %v", err)
		} else {
			defer listener.Close()
			go listener.Start(ctx)
		}
	} else {
		log.Println("[WARN] Pub/Sub not configured, Gmail push sync disabled")
	}

	authUc := authUsecase.NewAuthUsecase(userRepo, fcmTokenRepo, cfg.JWTSecret)
	handler := api.NewHandler(authUc, uc, settings)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- handler.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		log.Printf("Server stopped: %v", err)
	case <-ctx.Done():
		log.Println("Shutting down")
	}
}

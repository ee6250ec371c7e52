package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "kanban-mail-backend/cmd/api"
	authdomain "kanban-mail-backend/internal/auth/domain"
	authRepo "kanban-mail-backend/internal/auth/repository"
	kanbandomain "kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/ai"
	"kanban-mail-backend/pkg/config"
	"kanban-mail-backend/pkg/database"
	"kanban-mail-backend/pkg/gmail"
)

func main() {
	batchSize := flag.Int("batch", 100, "items per batch")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&authdomain.User{}, &kanbandomain.KanbanItem{}, &kanbandomain.UserSettings{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo := authRepo.NewUserRepository(db)
	settings := api.NewRuntimeSettings(ai.ProviderType(cfg.AIProvider), cfg.OllamaBaseURL, cfg.OllamaModel)
	kanban := api.BuildKanban(ctx, cfg, db, userRepo, gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret), settings)

	if !kanban.CanEmbed() {
		log.Fatal("Backfill needs GEMINI_API_KEY and a reachable vector store")
	}

	log.Printf("[Backfill] Starting (batch %d, delay %s)", *batchSize, cfg.EmbeddingBackfillGap)
	result, err := kanban.Usecase.BackfillEmbeddings(ctx, *batchSize, cfg.EmbeddingBackfillGap)
	if err != nil {
		log.Printf("[Backfill] Stopped early: %v", err)
	}

	fmt.Println("Embedding backfill summary")
	fmt.Printf("  success: %d\n", result.Succeeded)
	fmt.Printf("  failed:  %d\n", result.Failed)
	fmt.Printf("  total:   %d\n", result.Succeeded+result.Failed)

	if err != nil || result.Failed > 0 {
		os.Exit(1)
	}
}

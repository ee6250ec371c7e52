package api

import (
	"context"
	"log"

	authRepo "kanban-mail-backend/internal/auth/repository"
	kanbanRepo "kanban-mail-backend/internal/kanban/repository"
	kanbanUsecase "kanban-mail-backend/internal/kanban/usecase"
	"kanban-mail-backend/pkg/ai"
	"kanban-mail-backend/pkg/chroma"
	"kanban-mail-backend/pkg/config"
	"kanban-mail-backend/pkg/gemini"
	"kanban-mail-backend/pkg/gmail"
	"kanban-mail-backend/pkg/vector"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"gorm.io/gorm"
)

// Kanban bundles the engine with the optional services it was wired with
type Kanban struct {
	Usecase  kanbanUsecase.KanbanUsecase
	Vectors  *vector.Gateway
	Embedder *gemini.Embedder // nil when no Gemini key is configured
}

// CanEmbed reports whether embeddings can be computed and stored
func (k *Kanban) CanEmbed() bool {
	return k.Embedder != nil && k.Vectors.Enabled()
}

// BuildKanban wires the engine from config. Missing AI or vector settings
// leave the matching features degraded instead of failing startup.
func BuildKanban(ctx context.Context, cfg *config.Config, db *gorm.DB, userRepo authRepo.UserRepository, gmailService *gmail.Service, settings *RuntimeSettings) *Kanban {
	uc := kanbanUsecase.NewKanbanUsecase(
		kanbanRepo.NewItemRepository(db),
		kanbanRepo.NewSettingsRepository(db),
		NewMailboxProvider(userRepo, gmailService),
		kanbanUsecase.Options{
			PageSize:        cfg.BoardPageSize,
			SyncConcurrency: cfg.SyncConcurrency,
			SearchWindow:    cfg.SearchWindow,
			SnoozeBatchSize: cfg.SnoozeBatchSize,
			LabelCacheTTL:   cfg.LabelCacheTTL,
			ScoreThreshold:  cfg.VectorScoreThreshold,
			TopicName:       cfg.GooglePubSubTopic,
		},
	)

	summarizer, err := ai.NewSummarizerService(ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIModel:      cfg.OpenAIModel,
		GeminiAPIKey:     cfg.GeminiApiKey,
		GetOllamaBaseURL: settings.OllamaBaseURL,
		GetOllamaModel:   settings.OllamaModel,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize AI service: %v", err)
	} else {
		uc.SetSummarizer(summarizer)
		log.Printf("AI service initialized with provider: %s", cfg.AIProvider)
	}

	k := &Kanban{Usecase: uc}

	var embedFunc embeddings.EmbeddingFunction
	if cfg.GeminiApiKey != "" {
		embedder, err := gemini.NewEmbedder(cfg.GeminiApiKey)
		if err != nil {
			log.Printf("Warning: Failed to initialize embedder: %v. Semantic search will not be available.", err)
		} else {
			k.Embedder = embedder
			embedFunc = embedder.Function()
			uc.SetEmbedder(embedder)
		}
	} else {
		log.Println("Warning: GEMINI_API_KEY not set. Embeddings will not be generated.")
	}

	var store vector.Store
	if cfg.ChromaAPIKey != "" || cfg.ChromaURL != "" {
		chromaClient, err := chroma.NewChromaClient(cfg, embedFunc)
		if err != nil {
			log.Printf("Warning: Failed to initialize Chroma client: %v. Semantic search will not be available.", err)
		} else {
			store = chromaClient
		}
	} else {
		log.Println("Warning: Chroma not configured. Semantic search will not be available.")
	}

	k.Vectors = vector.NewGateway(store, cfg.VectorCollection, cfg.VectorDimension)
	k.Vectors.EnsureCollection(ctx)
	uc.SetVectorIndex(k.Vectors)

	return k
}

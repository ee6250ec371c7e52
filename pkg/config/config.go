package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	JWTSecret          string
	DatabaseURL        string
	GoogleClientID     string
	GoogleClientSecret string

	// Gmail push notifications (Pub/Sub)
	GoogleProjectID     string
	GooglePubSubTopic   string
	GoogleCredentials   string
	FirebaseCredentials string

	// AI providers
	AIProvider    string
	OpenAIAPIKey  string
	OpenAIModel   string
	GeminiApiKey  string
	OllamaBaseURL string
	OllamaModel   string
	AITimeout     time.Duration

	// Vector store
	ChromaURL            string
	ChromaAPIKey         string
	ChromaTenant         string
	ChromaDatabase       string
	VectorCollection     string
	VectorDimension      int
	VectorScoreThreshold float64

	// Board events
	NATSURL    string
	NATSStream string

	// Kanban engine tuning
	BoardPageSize        int
	SyncConcurrency      int
	SearchWindow         int
	LabelCacheTTL        time.Duration
	SnoozeSweepInterval  time.Duration
	SnoozeBatchSize      int
	EmbeddingWorkers     int
	EmbeddingBackfillGap time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		DatabaseURL:        getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=kanban port=5432 sslmode=disable"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:   getEnv("GOOGLE_PUBSUB_TOPIC", ""),
		GoogleCredentials:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL_SUMMARY", "gpt-4o-mini"),
		GeminiApiKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),
		AITimeout:     getDuration("AI_TIMEOUT", 60*time.Second),

		ChromaURL:            getEnv("CHROMA_URL", ""),
		ChromaAPIKey:         getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:         getEnv("CHROMA_TENANT", ""),
		ChromaDatabase:       getEnv("CHROMA_DATABASE", ""),
		VectorCollection:     getEnv("VECTOR_COLLECTION", "email_embeddings"),
		VectorDimension:      getInt("VECTOR_DIMENSION", 768),
		VectorScoreThreshold: getFloat("VECTOR_SCORE_THRESHOLD", 0.5),

		NATSURL:    getEnv("NATS_URL", ""),
		NATSStream: getEnv("NATS_STREAM", "KANBAN_EVENTS"),

		BoardPageSize:        getInt("BOARD_PAGE_SIZE", 20),
		SyncConcurrency:      getInt("SYNC_CONCURRENCY", 5),
		SearchWindow:         getInt("SEARCH_WINDOW", 500),
		LabelCacheTTL:        getDuration("LABEL_CACHE_TTL", 5*time.Minute),
		SnoozeSweepInterval:  getDuration("SNOOZE_SWEEP_INTERVAL", time.Minute),
		SnoozeBatchSize:      getInt("SNOOZE_BATCH_SIZE", 100),
		EmbeddingWorkers:     getInt("EMBEDDING_WORKERS", 3),
		EmbeddingBackfillGap: getDuration("EMBEDDING_BACKFILL_DELAY", time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

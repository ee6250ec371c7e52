package usecase

import (
	"context"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/ai"
)

// BoardQuery selects one page of a user's board
type BoardQuery struct {
	UserID    string
	Label     string
	PageToken string
	PageSize  int
}

// KanbanUsecase defines the interface for kanban use cases
type KanbanUsecase interface {
	GetBoard(ctx context.Context, q BoardQuery) (*domain.Board, error)
	SyncLabelToItems(ctx context.Context, userID, label string, max int) (domain.BatchResult, error)
	UpdateStatus(ctx context.Context, userID, messageID, status string, gmailLabel *string) (*domain.KanbanItem, error)
	Snooze(ctx context.Context, userID, messageID, until string) (*domain.KanbanItem, error)
	Unsnooze(ctx context.Context, userID, messageID string) (*domain.KanbanItem, error)
	WakeExpired(ctx context.Context, now time.Time, batchSize int) (domain.BatchResult, []*domain.KanbanItem, error)
	// Columns
	GetColumns(ctx context.Context, userID string) ([]domain.Column, error)
	UpdateColumns(ctx context.Context, userID string, columns []domain.Column) ([]domain.Column, error)
	// Labels
	ListLabels(ctx context.Context, userID string) ([]domain.Label, error)
	ValidateLabel(ctx context.Context, userID, name string) (*domain.LabelValidation, error)
	WatchMailbox(ctx context.Context, userID string) error
	// Search
	SearchItems(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error)
	SemanticSearch(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error)
	Suggestions(ctx context.Context, userID, query string, limit int) ([]domain.Suggestion, error)
	// AI
	Summarize(ctx context.Context, userID, messageID string) (*domain.SummaryResult, error)
	GenerateAndStoreEmbedding(ctx context.Context, userID, messageID string) error
	BackfillEmbeddings(ctx context.Context, batchSize int, delay time.Duration) (domain.BatchResult, error)

	SetSummarizer(svc ai.SummarizerService)
	SetEmbedder(e Embedder)
	SetVectorIndex(idx VectorIndex)
	SetEventPublisher(p EventPublisher)
	SetEmbeddingQueue(q EmbeddingQueue)
}

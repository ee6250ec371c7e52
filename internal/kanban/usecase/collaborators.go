package usecase

import (
	"context"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/vector"
)

// Mailbox is the remote mail provider of one user
type Mailbox interface {
	ListMessages(ctx context.Context, labelID string, pageSize int, pageToken string) (*domain.MessagePage, error)
	GetMessageDetail(ctx context.Context, messageID string) (*domain.MessageDetail, error)
	ListLabels(ctx context.Context) ([]domain.Label, error)
	ModifyLabels(ctx context.Context, messageID string, add, remove []string) error
	Watch(ctx context.Context, topicName string) error
}

// MailboxProvider opens an authorized Mailbox for a user
type MailboxProvider interface {
	ForUser(ctx context.Context, userID string) (Mailbox, error)
}

// Embedder turns text into a vector of the index dimension
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventPublisher pushes board events to a user's connected clients
type EventPublisher interface {
	SendToUser(userID string, eventType string, payload interface{})
}

// VectorIndex is the subset of vector.Gateway the usecase relies on
type VectorIndex interface {
	Enabled() bool
	Upsert(ctx context.Context, messageID, userID string, vec []float32, meta vector.Metadata) bool
	SearchSimilar(ctx context.Context, userID string, vec []float32, limit int, scoreThreshold float64) []vector.Hit
	GetUniqueContacts(ctx context.Context, userID string, limit int) []vector.Contact
}

// EmbeddingQueue accepts fire-and-forget embedding jobs
type EmbeddingQueue interface {
	QueueJob(job EmbeddingJob) bool
}

// Event types published to clients
const (
	EventItemMoved   = "item_moved"
	EventItemSnoozed = "item_snoozed"
	EventItemWoken   = "item_woken"
	EventBoardSynced = "board_synced"
)

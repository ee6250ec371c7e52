package repository

import (
	"context"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
)

// ItemRepository defines the persistence operations on kanban items
type ItemRepository interface {
	// Get one item, nil when absent
	FindByMessageID(ctx context.Context, userID, messageID string) (*domain.KanbanItem, error)
	// Batch lookup keyed by message id
	FindByMessageIDs(ctx context.Context, userID string, messageIDs []string) (map[string]*domain.KanbanItem, error)
	// Insert or refresh the remote snapshot, keeping workflow and AI state
	UpsertSnapshot(ctx context.Context, item *domain.KanbanItem) (*domain.KanbanItem, error)
	// Page through a local column, newest first
	ListByStatus(ctx context.Context, userID, status string, offset, limit int) ([]*domain.KanbanItem, error)
	CountByStatus(ctx context.Context, userID, status string) (int64, error)
	// Most recently touched items of a user
	ListRecent(ctx context.Context, userID string, limit int) ([]*domain.KanbanItem, error)
	// Set status and drop any snooze state
	UpdateStatus(ctx context.Context, userID, messageID, status string) error
	// Force status on the given messages, leaving snoozed ones alone
	CorrectStatus(ctx context.Context, userID string, messageIDs []string, status string) (int64, error)
	Save(ctx context.Context, item *domain.KanbanItem) error
	SetSummary(ctx context.Context, userID, messageID, summary string, at time.Time) error
	MarkEmbedded(ctx context.Context, userID, messageID string, at time.Time) error
	// Items of any user still lacking an embedding, ordered by id after afterID
	ListWithoutEmbedding(ctx context.Context, afterID string, limit int) ([]*domain.KanbanItem, error)
	CountWithoutEmbedding(ctx context.Context) (int64, error)
	// Snoozed items due at now
	FindExpiredSnoozed(ctx context.Context, now time.Time, limit int) ([]*domain.KanbanItem, error)
	// Restore the given items if they are still snoozed and due
	WakeSnoozed(ctx context.Context, ids []string, now time.Time) (int64, error)
	// Move items whose status is not in surviving (and not snoozed) to target
	MigrateOrphans(ctx context.Context, userID string, surviving []string, target string) (int64, error)
}

// SettingsRepository stores the per-user column list
type SettingsRepository interface {
	// Columns of the user, the default board when nothing is saved
	GetColumns(ctx context.Context, userID string) ([]domain.Column, error)
	// Replace the whole list and return the new version
	SetColumns(ctx context.Context, userID string, columns []domain.Column) (int, error)
}

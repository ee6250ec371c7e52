package repository

import (
	"context"
	"errors"
	"time"

	"kanban-mail-backend/internal/kanban/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotColumns are overwritten on every sync; everything else is set on insert only
var snapshotColumns = []string{
	"mailbox_id",
	"sender_name",
	"sender_email",
	"subject",
	"snippet",
	"thread_id",
	"has_attachments",
	"updated_at",
}

// itemRepository implements ItemRepository interface
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new instance of itemRepository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{
		db: db,
	}
}

func (r *itemRepository) FindByMessageID(ctx context.Context, userID, messageID string) (*domain.KanbanItem, error) {
	var item domain.KanbanItem
	err := r.db.WithContext(ctx).Where("user_id = ? AND message_id = ?", userID, messageID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByMessageIDs(ctx context.Context, userID string, messageIDs []string) (map[string]*domain.KanbanItem, error) {
	out := make(map[string]*domain.KanbanItem, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}

	var items []*domain.KanbanItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.MessageID] = it
	}
	return out, nil
}

func (r *itemRepository) UpsertSnapshot(ctx context.Context, item *domain.KanbanItem) (*domain.KanbanItem, error) {
	now := time.Now().UTC()
	row := *item
	row.ID = uuid.New().String()
	row.Provider = domain.ProviderGmail
	if row.Status == "" {
		row.Status = domain.StatusInbox
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns(snapshotColumns),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	// the conflict path keeps the existing id and state, so read the row back
	return r.FindByMessageID(ctx, item.UserID, item.MessageID)
}

func (r *itemRepository) ListByStatus(ctx context.Context, userID, status string, offset, limit int) ([]*domain.KanbanItem, error) {
	var items []*domain.KanbanItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("updated_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) CountByStatus(ctx context.Context, userID, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

func (r *itemRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.KanbanItem, error) {
	var items []*domain.KanbanItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) UpdateStatus(ctx context.Context, userID, messageID, status string) error {
	res := r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Updates(map[string]interface{}{
			"status":          status,
			"original_status": nil,
			"snooze_until":    nil,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *itemRepository) CorrectStatus(ctx context.Context, userID string, messageIDs []string, status string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("user_id = ? AND message_id IN ? AND status <> ? AND status <> ?",
			userID, messageIDs, status, domain.StatusSnoozed).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *itemRepository) Save(ctx context.Context, item *domain.KanbanItem) error {
	item.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *itemRepository) SetSummary(ctx context.Context, userID, messageID, summary string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Updates(map[string]interface{}{
			"summary":            summary,
			"last_summarized_at": at.UTC(),
		}).Error
}

func (r *itemRepository) MarkEmbedded(ctx context.Context, userID, messageID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Updates(map[string]interface{}{
			"has_embedding":          true,
			"embedding_generated_at": at.UTC(),
		}).Error
}

func (r *itemRepository) ListWithoutEmbedding(ctx context.Context, afterID string, limit int) ([]*domain.KanbanItem, error) {
	var items []*domain.KanbanItem
	err := r.db.WithContext(ctx).
		Where("has_embedding = ? AND id > ?", false, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) CountWithoutEmbedding(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("has_embedding = ?", false).
		Count(&count).Error
	return count, err
}

func (r *itemRepository) FindExpiredSnoozed(ctx context.Context, now time.Time, limit int) ([]*domain.KanbanItem, error) {
	var items []*domain.KanbanItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND snooze_until <= ?", domain.StatusSnoozed, now.UTC()).
		Order("snooze_until ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// WakeSnoozed is a single filter-scoped UPDATE. Rows woken by a concurrent
// sweep no longer match the filter, so running it twice is harmless.
func (r *itemRepository) WakeSnoozed(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now = now.UTC()
	res := r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("id IN ? AND status = ? AND snooze_until <= ?", ids, domain.StatusSnoozed, now).
		Updates(map[string]interface{}{
			"status":          gorm.Expr("COALESCE(original_status, ?)", domain.StatusInbox),
			"original_status": nil,
			"snooze_until":    nil,
			"updated_at":      now,
		})
	return res.RowsAffected, res.Error
}

func (r *itemRepository) MigrateOrphans(ctx context.Context, userID string, surviving []string, target string) (int64, error) {
	if len(surviving) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&domain.KanbanItem{}).
		Where("user_id = ? AND status NOT IN ? AND status <> ?", userID, surviving, domain.StatusSnoozed).
		Updates(map[string]interface{}{
			"status":     target,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

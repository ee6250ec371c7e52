package repository

import (
	"context"
	"errors"
	"time"

	"kanban-mail-backend/internal/kanban/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsRepository implements SettingsRepository interface
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new instance of settingsRepository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}

func (r *settingsRepository) find(ctx context.Context, userID string) (*domain.UserSettings, error) {
	var settings domain.UserSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) GetColumns(ctx context.Context, userID string) ([]domain.Column, error) {
	settings, err := r.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil || len(settings.KanbanColumns) == 0 {
		return domain.DefaultColumns(), nil
	}
	return settings.KanbanColumns, nil
}

func (r *settingsRepository) SetColumns(ctx context.Context, userID string, columns []domain.Column) (int, error) {
	now := time.Now().UTC()
	row := &domain.UserSettings{
		UserID:        userID,
		KanbanColumns: domain.ColumnList(columns),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"kanban_columns": domain.ColumnList(columns),
			"version":        gorm.Expr("user_settings.version + 1"),
			"updated_at":     now,
		}),
	}).Create(row).Error
	if err != nil {
		return 0, err
	}

	saved, err := r.find(ctx, userID)
	if err != nil {
		return 0, err
	}
	if saved == nil {
		return 0, errors.New("settings vanished after save")
	}
	return saved.Version, nil
}

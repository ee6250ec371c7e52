package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"kanban-mail-backend/internal/kanban/domain"
)

func (u *kanbanUsecase) GetColumns(ctx context.Context, userID string) ([]domain.Column, error) {
	columns, err := u.settingsRepo.GetColumns(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortColumns(columns)
	return columns, nil
}

// ValidateColumns checks a full column list before it replaces the old one.
func ValidateColumns(columns []domain.Column) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: at least one column is required", domain.ErrValidation)
	}
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("%w: column %d has no id", domain.ErrValidation, i)
		}
		if id == domain.StatusSnoozed {
			return fmt.Errorf("%w: %s is reserved", domain.ErrValidation, domain.StatusSnoozed)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate column id %q", domain.ErrValidation, id)
		}
		seen[id] = true
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: column %q has no name", domain.ErrValidation, id)
		}
	}
	return nil
}

// UpdateColumns replaces the whole column list and moves items left in a
// removed column to the first remaining one.
func (u *kanbanUsecase) UpdateColumns(ctx context.Context, userID string, columns []domain.Column) ([]domain.Column, error) {
	if err := ValidateColumns(columns); err != nil {
		return nil, err
	}

	cleaned := make([]domain.Column, len(columns))
	for i, c := range columns {
		c.ID = strings.TrimSpace(c.ID)
		c.Name = strings.TrimSpace(c.Name)
		if c.GmailLabel != nil {
			label := strings.TrimSpace(*c.GmailLabel)
			c.GmailLabel = &label
		}
		cleaned[i] = c
	}
	sortColumns(cleaned)

	version, err := u.settingsRepo.SetColumns(ctx, userID, cleaned)
	if err != nil {
		return nil, fmt.Errorf("save columns: %w", err)
	}

	surviving := make([]string, 0, len(cleaned))
	for _, c := range cleaned {
		surviving = append(surviving, c.ID)
	}
	moved, err := u.itemRepo.MigrateOrphans(ctx, userID, surviving, cleaned[0].ID)
	if err != nil {
		log.Printf("[Board] Failed to migrate orphaned items of user %s: %v", userID, err)
	} else if moved > 0 {
		log.Printf("[Board] Moved %d orphaned items of user %s to %s", moved, userID, cleaned[0].ID)
	}

	log.Printf("[Board] Columns of user %s saved (version %d)", userID, version)
	return cleaned, nil
}

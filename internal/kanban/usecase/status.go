package usecase

import (
	"context"
	"fmt"
	"log"

	"kanban-mail-backend/internal/kanban/domain"
)

func findColumn(columns []domain.Column, id string) (domain.Column, bool) {
	for _, c := range columns {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Column{}, false
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// UpdateStatus moves an item to another column. When gmailLabel is set the
// remote labels are changed first; if that fails nothing is written locally.
func (u *kanbanUsecase) UpdateStatus(ctx context.Context, userID, messageID, status string, gmailLabel *string) (*domain.KanbanItem, error) {
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", domain.ErrValidation)
	}
	if status == domain.StatusSnoozed {
		return nil, fmt.Errorf("%w: use the snooze endpoint to snooze an item", domain.ErrValidation)
	}

	columns, err := u.settingsRepo.GetColumns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	if _, ok := findColumn(columns, status); !ok {
		return nil, fmt.Errorf("%w: unknown column %q", domain.ErrValidation, status)
	}

	item, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}
	previous := item.Status

	if gmailLabel != nil {
		if err := u.syncLabels(ctx, userID, item, columns, status, *gmailLabel); err != nil {
			return nil, err
		}
	}

	if err := u.itemRepo.UpdateStatus(ctx, userID, messageID, status); err != nil {
		return nil, err
	}
	updated, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}

	u.publish(userID, EventItemMoved, map[string]interface{}{
		"messageId": messageID,
		"from":      previous,
		"to":        status,
	})
	return updated, nil
}

// syncLabels applies the label change of a move on the remote mailbox.
func (u *kanbanUsecase) syncLabels(ctx context.Context, userID string, item *domain.KanbanItem, columns []domain.Column, target, label string) error {
	mb, err := u.mailboxes.ForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	var add, remove []string
	if label == "" {
		// archive
		remove = append(remove, domain.StatusInbox)
	} else {
		labelID := u.labels.Resolve(ctx, userID, mb, label)
		if labelID == "" {
			return fmt.Errorf("%w: label %q does not exist", domain.ErrValidation, label)
		}
		add = append(add, labelID)
		if labelID != domain.StatusInbox {
			remove = append(remove, domain.StatusInbox)
		}

		if prev, ok := findColumn(columns, item.Status); ok {
			if prevLabel, bound := prev.BoundLabel(); bound {
				prevID := u.labels.Resolve(ctx, userID, mb, prevLabel)
				if prevID != "" && prevID != labelID {
					remove = appendUnique(remove, prevID)
				}
			}
		}
	}

	if err := mb.ModifyLabels(ctx, item.MessageID, add, remove); err != nil {
		log.Printf("[Board] Failed to modify labels of %s for user %s: %v", item.MessageID, userID, err)
		return fmt.Errorf("%w: modify labels: %v", domain.ErrUpstream, err)
	}
	log.Printf("[Board] Moved %s to %s (add=%v remove=%v)", item.MessageID, target, add, remove)
	return nil
}

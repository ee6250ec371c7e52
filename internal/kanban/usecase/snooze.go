package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
)

// accepted snooze time layouts, most specific first
var snoozeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseSnoozeUntil reads a wake time. Layouts without a zone are UTC.
func ParseSnoozeUntil(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range snoozeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid snooze datetime %q", domain.ErrValidation, value)
}

// Snooze parks an item until the given time. Snoozing a snoozed item moves
// its wake time and keeps the status it will return to.
func (u *kanbanUsecase) Snooze(ctx context.Context, userID, messageID, until string) (*domain.KanbanItem, error) {
	wakeAt, err := ParseSnoozeUntil(until)
	if err != nil {
		return nil, err
	}

	item, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}

	original := item.Status
	if item.IsSnoozed() {
		original = item.RestoreStatus()
	}
	if original == "" {
		original = domain.StatusInbox
	}

	item.Status = domain.StatusSnoozed
	item.OriginalStatus = &original
	item.SnoozeUntil = &wakeAt
	if err := u.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	log.Printf("[Snooze] %s snoozed until %s (returns to %s)", messageID, wakeAt.Format(time.RFC3339), original)
	u.publish(userID, EventItemSnoozed, map[string]interface{}{
		"messageId":   messageID,
		"snoozeUntil": wakeAt,
	})
	return item, nil
}

// Unsnooze wakes an item before its time. Items that are not snoozed are
// returned unchanged.
func (u *kanbanUsecase) Unsnooze(ctx context.Context, userID, messageID string) (*domain.KanbanItem, error) {
	item, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}
	if !item.IsSnoozed() {
		return item, nil
	}

	target := item.RestoreStatus()
	if err := u.itemRepo.UpdateStatus(ctx, userID, messageID, target); err != nil {
		return nil, err
	}
	woken, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if woken == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}

	u.publish(userID, EventItemWoken, map[string]interface{}{
		"messageId": messageID,
		"status":    target,
	})
	return woken, nil
}

// WakeExpired restores snoozed items that are due. Rows already woken by a
// concurrent sweep are skipped. If the bulk write fails the batch is retried
// row by row so one bad row does not hold back the rest.
func (u *kanbanUsecase) WakeExpired(ctx context.Context, now time.Time, batchSize int) (domain.BatchResult, []*domain.KanbanItem, error) {
	var result domain.BatchResult
	if batchSize < 1 {
		batchSize = u.opts.SnoozeBatchSize
	}

	due, err := u.itemRepo.FindExpiredSnoozed(ctx, now, batchSize)
	if err != nil {
		return result, nil, fmt.Errorf("find expired snoozed: %w", err)
	}
	if len(due) == 0 {
		return result, nil, nil
	}

	ids := make([]string, 0, len(due))
	for _, it := range due {
		ids = append(ids, it.ID)
	}

	var woken []*domain.KanbanItem
	n, err := u.itemRepo.WakeSnoozed(ctx, ids, now)
	if err == nil {
		result.Succeeded = int(n)
		if int(n) == len(due) {
			woken = due
		} else {
			woken = u.rereadWoken(ctx, due)
		}
	} else {
		log.Printf("[Snooze] Bulk wake failed, retrying per item: %v", err)
		for _, it := range due {
			n, err := u.itemRepo.WakeSnoozed(ctx, []string{it.ID}, now)
			if err != nil {
				result.Failed++
				log.Printf("[Snooze] Failed to wake %s: %v", it.MessageID, err)
				continue
			}
			if n == 1 {
				result.Succeeded++
				woken = append(woken, it)
			}
		}
	}

	for _, it := range woken {
		it.Status = it.RestoreStatus()
		it.OriginalStatus = nil
		it.SnoozeUntil = nil
		u.publish(it.UserID, EventItemWoken, map[string]interface{}{
			"messageId": it.MessageID,
			"status":    it.Status,
		})
	}
	if result.Total() > 0 {
		log.Printf("[Snooze] Woke %d items (%d failed)", result.Succeeded, result.Failed)
	}
	return result, woken, nil
}

// rereadWoken keeps the candidates that are no longer snoozed.
func (u *kanbanUsecase) rereadWoken(ctx context.Context, due []*domain.KanbanItem) []*domain.KanbanItem {
	byUser := make(map[string][]string)
	for _, it := range due {
		byUser[it.UserID] = append(byUser[it.UserID], it.MessageID)
	}

	var woken []*domain.KanbanItem
	for _, it := range due {
		ids, ok := byUser[it.UserID]
		if !ok {
			continue
		}
		delete(byUser, it.UserID)
		current, err := u.itemRepo.FindByMessageIDs(ctx, it.UserID, ids)
		if err != nil {
			log.Printf("[Snooze] Failed to re-read woken items of %s: %v", it.UserID, err)
			continue
		}
		for _, candidate := range due {
			if candidate.UserID != it.UserID {
				continue
			}
			if cur, ok := current[candidate.MessageID]; ok && !cur.IsSnoozed() {
				woken = append(woken, candidate)
			}
		}
	}
	return woken
}

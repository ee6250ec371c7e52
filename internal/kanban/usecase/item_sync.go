package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/address"

	"golang.org/x/sync/errgroup"
)

// snapshotFromDetail builds the item fields copied from the remote message.
func snapshotFromDetail(userID, labelID, status string, d *domain.MessageDetail) *domain.KanbanItem {
	from := address.Parse(d.Header("From"))
	return &domain.KanbanItem{
		UserID:         userID,
		Provider:       domain.ProviderGmail,
		MessageID:      d.ID,
		MailboxID:      labelID,
		SenderName:     from.Name,
		SenderEmail:    from.Email,
		Subject:        d.Header("Subject"),
		Snippet:        d.Snippet,
		ThreadID:       d.ThreadID,
		HasAttachments: d.HasAttachments,
		Status:         status,
	}
}

// syncMessages fetches and upserts the given messages with bounded
// concurrency. Status only applies to rows created here. A message that
// fails is logged and counted; the others still go through.
func (u *kanbanUsecase) syncMessages(ctx context.Context, mb Mailbox, userID, labelID, status string, ids []string) (map[string]*domain.KanbanItem, int) {
	synced := make(map[string]*domain.KanbanItem, len(ids))
	if len(ids) == 0 {
		return synced, 0
	}

	var (
		mu     sync.Mutex
		failed int
		g      errgroup.Group
	)
	g.SetLimit(u.opts.SyncConcurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			item, err := u.syncOne(ctx, mb, userID, labelID, status, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Printf("[Board] Failed to sync message %s for user %s: %v", id, userID, err)
				return nil
			}
			synced[id] = item
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range synced {
		if !item.HasEmbedding {
			u.enqueueEmbedding(userID, item.MessageID)
		}
	}
	return synced, failed
}

func (u *kanbanUsecase) syncOne(ctx context.Context, mb Mailbox, userID, labelID, status, messageID string) (*domain.KanbanItem, error) {
	detail, err := mb.GetMessageDetail(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("message %s: empty detail", messageID)
	}
	if detail.ID == "" {
		detail.ID = messageID
	}
	return u.itemRepo.UpsertSnapshot(ctx, snapshotFromDetail(userID, labelID, status, detail))
}

// columnForLabel finds the column bound to a label, by id or name.
func columnForLabel(columns []domain.Column, label, labelID string) (domain.Column, bool) {
	for _, col := range columns {
		bound, ok := col.BoundLabel()
		if !ok {
			continue
		}
		if strings.EqualFold(bound, label) || bound == labelID {
			return col, true
		}
	}
	return domain.Column{}, false
}

// SyncLabelToItems pulls the newest messages of a label into the local store.
// New rows land in the column bound to that label, INBOX otherwise.
func (u *kanbanUsecase) SyncLabelToItems(ctx context.Context, userID, label string, max int) (domain.BatchResult, error) {
	var result domain.BatchResult
	if max < 1 {
		max = presyncCount
	}
	if max > maxListPageSize {
		max = maxListPageSize
	}

	mb, err := u.mailboxes.ForUser(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	labelID := u.labels.Resolve(ctx, userID, mb, label)
	if labelID == "" {
		labelID = label
	}

	status := domain.StatusInbox
	if columns, err := u.settingsRepo.GetColumns(ctx, userID); err == nil {
		if col, ok := columnForLabel(columns, label, labelID); ok {
			status = col.ID
		}
	}

	page, err := mb.ListMessages(ctx, labelID, max, "")
	if err != nil {
		return result, fmt.Errorf("%w: list %s: %v", domain.ErrUpstream, labelID, err)
	}

	synced, failed := u.syncMessages(ctx, mb, userID, labelID, status, page.IDs)
	result.Succeeded = len(synced)
	result.Failed = failed
	if result.Succeeded > 0 {
		u.publish(userID, EventBoardSynced, map[string]interface{}{"label": labelID, "count": result.Succeeded})
	}
	return result, nil
}

package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/vector"
)

const DefaultBackfillBatch = 100

// embeddingText is what an item is embedded from.
func embeddingText(it *domain.KanbanItem) string {
	parts := []string{}
	if it.Subject != "" {
		parts = append(parts, "Subject: "+it.Subject)
	}
	if it.SenderName != "" || it.SenderEmail != "" {
		parts = append(parts, fmt.Sprintf("From: %s <%s>", it.SenderName, it.SenderEmail))
	}
	if it.Snippet != "" {
		parts = append(parts, it.Snippet)
	}
	if it.Summary != "" {
		parts = append(parts, "Summary: "+it.Summary)
	}
	return strings.Join(parts, "\n")
}

// GenerateAndStoreEmbedding embeds one item and flags it only after the
// vector store accepted the write.
func (u *kanbanUsecase) GenerateAndStoreEmbedding(ctx context.Context, userID, messageID string) error {
	item, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}

	if u.embedder == nil {
		return fmt.Errorf("%w: no embedder configured", domain.ErrUpstream)
	}
	vec, err := u.embedder.Embed(ctx, embeddingText(item))
	if err != nil {
		return fmt.Errorf("%w: embed: %v", domain.ErrUpstream, err)
	}

	if u.vectors == nil {
		return domain.ErrEmbeddingNotPersisted
	}
	ok := u.vectors.Upsert(ctx, item.MessageID, userID, vec, vector.Metadata{
		Subject:     item.Subject,
		SenderName:  item.SenderName,
		SenderEmail: item.SenderEmail,
		Snippet:     item.Snippet,
		Summary:     item.Summary,
	})
	if !ok {
		return domain.ErrEmbeddingNotPersisted
	}

	return u.itemRepo.MarkEmbedded(ctx, userID, messageID, u.now())
}

// BackfillEmbeddings walks every item without an embedding in id order.
// Failed items are counted and skipped; they stay unflagged for a later run.
func (u *kanbanUsecase) BackfillEmbeddings(ctx context.Context, batchSize int, delay time.Duration) (domain.BatchResult, error) {
	var result domain.BatchResult
	if batchSize < 1 {
		batchSize = DefaultBackfillBatch
	}

	cursor := ""
	for {
		batch, err := u.itemRepo.ListWithoutEmbedding(ctx, cursor, batchSize)
		if err != nil {
			return result, fmt.Errorf("list items without embedding: %w", err)
		}
		if len(batch) == 0 {
			return result, nil
		}

		for _, it := range batch {
			if err := u.GenerateAndStoreEmbedding(ctx, it.UserID, it.MessageID); err != nil {
				result.Failed++
				log.Printf("[Backfill] %s: %v", it.MessageID, err)
				continue
			}
			result.Succeeded++
		}
		cursor = batch[len(batch)-1].ID
		log.Printf("[Backfill] Progress: %d succeeded, %d failed", result.Succeeded, result.Failed)

		if len(batch) < batchSize {
			return result, nil
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

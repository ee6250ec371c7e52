package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/ai"
)

const summarizeTimeout = 60 * time.Second

// Summarize returns the AI summary of an item, reusing a stored one for a
// day. Degraded answers are returned but not stored.
func (u *kanbanUsecase) Summarize(ctx context.Context, userID, messageID string) (*domain.SummaryResult, error) {
	item, err := u.itemRepo.FindByMessageID(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, messageID)
	}

	now := u.now()
	if item.SummaryFresh(now) {
		return &domain.SummaryResult{Summary: item.Summary, Cached: true}, nil
	}

	mb, err := u.mailboxes.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	detail, err := mb.GetMessageDetail(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("%w: get message: %v", domain.ErrUpstream, err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: message %s: empty detail", domain.ErrUpstream, messageID)
	}

	bodyText := strings.TrimSpace(detail.BodyText)
	if bodyText == "" && detail.BodyHTML == "" {
		bodyText = firstNonEmpty(detail.Snippet, item.Subject)
	}

	aiCtx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	summary, err := ai.Summarize(aiCtx, u.summarizer, ai.EmailContent{
		Subject:   item.Subject,
		FromName:  item.SenderName,
		FromEmail: item.SenderEmail,
		BodyHTML:  detail.BodyHTML,
		BodyText:  bodyText,
	})
	if err != nil {
		log.Printf("[Summary] AI error for %s: %v", messageID, err)
		return &domain.SummaryResult{Summary: ai.UnavailableSummary}, nil
	}
	if summary.Degraded {
		return &domain.SummaryResult{Summary: summary.Text}, nil
	}

	if err := u.itemRepo.SetSummary(ctx, userID, messageID, summary.Text, now); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	// the summary is part of the embedded text
	u.enqueueEmbedding(userID, messageID)

	return &domain.SummaryResult{Summary: summary.Text}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

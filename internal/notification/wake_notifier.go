package notification

import (
	"context"
	"fmt"
	"log"

	authrepo "kanban-mail-backend/internal/auth/repository"
	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/pkg/fcm"
)

const maxSubjectLen = 100

type pushSender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
}

// WakeNotifier pushes a notification to every device of a user whose snoozed
// items came back
type WakeNotifier struct {
	fcmRepo authrepo.FCMTokenRepository
	sender  pushSender
}

func NewWakeNotifier(fcmRepo authrepo.FCMTokenRepository, client *fcm.Client) *WakeNotifier {
	n := &WakeNotifier{fcmRepo: fcmRepo}
	if client != nil {
		n.sender = client
	}
	return n
}

func (n *WakeNotifier) NotifyWoken(ctx context.Context, items []*domain.KanbanItem) {
	if n.sender == nil {
		return
	}

	byUser := make(map[string][]*domain.KanbanItem)
	var order []string
	for _, item := range items {
		if _, seen := byUser[item.UserID]; !seen {
			order = append(order, item.UserID)
		}
		byUser[item.UserID] = append(byUser[item.UserID], item)
	}

	for _, userID := range order {
		n.notifyUser(ctx, userID, byUser[userID])
	}
}

func (n *WakeNotifier) notifyUser(ctx context.Context, userID string, items []*domain.KanbanItem) {
	tokens, err := n.fcmRepo.TokensForUser(ctx, userID)
	if err != nil {
		log.Printf("[FCM] Error getting tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	failed, err := n.sender.SendToDevices(ctx, tokens, wakeNotification(items))
	if err != nil {
		log.Printf("[FCM] Error sending wake notification to user %s: %v", userID, err)
		return
	}

	if len(failed) > 0 {
		log.Printf("[FCM] Cleaning up %d failed tokens", len(failed))
		if err := n.fcmRepo.DeleteTokens(ctx, failed); err != nil {
			log.Printf("[FCM] Error deleting failed tokens: %v", err)
		}
	}
}

func wakeNotification(items []*domain.KanbanItem) fcm.NotificationData {
	first := items[0]
	data := map[string]string{
		"type":      "item_woken",
		"messageId": first.MessageID,
		"status":    first.Status,
		"count":     fmt.Sprintf("%d", len(items)),
	}

	if len(items) > 1 {
		return fcm.NotificationData{
			Title: fmt.Sprintf("%d snoozed emails are back", len(items)),
			Body:  truncateSubject(first.Subject) + " and more",
			Data:  data,
			Link:  "/board",
		}
	}

	title := "Snoozed email is back"
	if first.SenderName != "" {
		title = "Snoozed email from " + first.SenderName
	}
	return fcm.NotificationData{
		Title: title,
		Body:  truncateSubject(first.Subject),
		Data:  data,
		Link:  "/board/" + first.MessageID,
	}
}

func truncateSubject(subject string) string {
	if subject == "" {
		return "(no subject)"
	}
	r := []rune(subject)
	if len(r) > maxSubjectLen {
		return string(r[:maxSubjectLen-3]) + "..."
	}
	return subject
}

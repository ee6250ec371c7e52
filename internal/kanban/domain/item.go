package domain

import (
	"fmt"
	"time"
)

// Built-in statuses. Column ids double as statuses, so user-defined columns
// add to this set; SNOOZED is reserved.
const (
	StatusInbox      = "INBOX"
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusSnoozed    = "SNOOZED"
)

const ProviderGmail = "gmail"

// SummaryTTL is how long a stored summary is served without regenerating it.
const SummaryTTL = 24 * time.Hour

// KanbanItem is the local view of one mailbox message on a user's board.
type KanbanItem struct {
	ID        string `json:"_id" gorm:"primaryKey"`
	UserID    string `json:"userId" gorm:"not null;uniqueIndex:idx_item_user_message;index:idx_item_user_status"`
	Provider  string `json:"provider" gorm:"not null;default:gmail"`
	MessageID string `json:"messageId" gorm:"not null;uniqueIndex:idx_item_user_message"`

	// Snapshot of the remote message, refreshed on every sync
	MailboxID      string `json:"mailboxId,omitempty"`
	SenderName     string `json:"senderName,omitempty"`
	SenderEmail    string `json:"senderEmail,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Snippet        string `json:"snippet,omitempty"`
	ThreadID       string `json:"threadId,omitempty"`
	HasAttachments bool   `json:"hasAttachments"`

	Status         string     `json:"status" gorm:"not null;index:idx_item_user_status"`
	OriginalStatus *string    `json:"originalStatus,omitempty"`
	SnoozeUntil    *time.Time `json:"snoozeUntil,omitempty" gorm:"index"`

	Summary              string     `json:"summary,omitempty"`
	LastSummarizedAt     *time.Time `json:"lastSummarizedAt,omitempty"`
	HasEmbedding         bool       `json:"hasEmbedding"`
	EmbeddingGeneratedAt *time.Time `json:"embeddingGeneratedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (KanbanItem) TableName() string {
	return "kanban_items"
}

// IsSnoozed reports whether the item is parked until SnoozeUntil.
func (i *KanbanItem) IsSnoozed() bool {
	return i.Status == StatusSnoozed
}

// RestoreStatus is the status the item returns to when it wakes.
func (i *KanbanItem) RestoreStatus() string {
	if i.OriginalStatus == nil || *i.OriginalStatus == "" || *i.OriginalStatus == StatusSnoozed {
		return StatusInbox
	}
	return *i.OriginalStatus
}

// SummaryFresh reports whether the cached summary may be returned at now.
func (i *KanbanItem) SummaryFresh(now time.Time) bool {
	if i.Summary == "" || i.LastSummarizedAt == nil {
		return false
	}
	return now.Sub(*i.LastSummarizedAt) < SummaryTTL
}

// Validate checks the snooze invariants:
// status is SNOOZED iff SnoozeUntil is set iff OriginalStatus is set, and
// OriginalStatus is never SNOOZED.
func (i *KanbanItem) Validate() error {
	snoozed := i.Status == StatusSnoozed
	if snoozed != (i.SnoozeUntil != nil) || snoozed != (i.OriginalStatus != nil) {
		return fmt.Errorf("item %s: inconsistent snooze state (status=%s)", i.MessageID, i.Status)
	}
	if i.OriginalStatus != nil && *i.OriginalStatus == StatusSnoozed {
		return fmt.Errorf("item %s: original status cannot be %s", i.MessageID, StatusSnoozed)
	}
	return nil
}

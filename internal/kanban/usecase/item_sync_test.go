package usecase

import (
	"context"
	"errors"
	"testing"

	"kanban-mail-backend/internal/kanban/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSyncLabelToItems(t *testing.T) {
	env := newTestEnv(t)
	env.mb.labels = []domain.Label{{ID: "Label_4", Name: "Projects", Type: domain.LabelTypeUser}}
	for _, id := range []string{"p1", "p2", "p3"} {
		env.mb.addMessage(id, "dev@example.com", "about "+id, "Label_4")
	}
	env.mb.failDetail["p3"] = true
	_, err := env.settings.SetColumns(context.Background(), "u1", []domain.Column{
		{ID: domain.StatusInbox, Name: "Inbox", GmailLabel: strPtr("INBOX")},
		{ID: "PROJECTS", Name: "Projects", GmailLabel: strPtr("projects"), Order: 1},
	})
	require.NoError(t, err)
	env.seedItem(t, &domain.KanbanItem{MessageID: "p2", Subject: "stale", Status: domain.StatusDone})

	pub := &mockPublisher{}
	pub.On("SendToUser", "u1", EventBoardSynced, mock.Anything).Once()
	env.uc.SetEventPublisher(pub)

	result, err := env.uc.SyncLabelToItems(context.Background(), "u1", "Projects", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchResult{Succeeded: 2, Failed: 1}, result)

	p1 := env.item(t, "p1")
	assert.Equal(t, "PROJECTS", p1.Status)
	assert.Equal(t, "Label_4", p1.MailboxID)

	p2 := env.item(t, "p2")
	assert.Equal(t, "about p2", p2.Subject, "snapshot refreshed")
	assert.Equal(t, domain.StatusDone, p2.Status, "status kept on existing rows")
	pub.AssertExpectations(t)
}

func TestSyncLabelToItemsErrors(t *testing.T) {
	env := newTestEnv(t)
	env.mb.listErr["INBOX"] = errors.New("down")
	_, err := env.uc.SyncLabelToItems(context.Background(), "u1", "INBOX", 0)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	env.provider.err = errors.New("no token")
	_, err = env.uc.SyncLabelToItems(context.Background(), "u1", "INBOX", 0)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

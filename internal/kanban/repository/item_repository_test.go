package repository

import (
	"context"
	"testing"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func newItemRepo(t *testing.T) (*gorm.DB, ItemRepository) {
	db := testutil.NewSQLiteDB(t, &domain.KanbanItem{}, &domain.UserSettings{})
	return db, NewItemRepository(db)
}

func seed(t *testing.T, db *gorm.DB, items ...*domain.KanbanItem) {
	t.Helper()
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if it.Provider == "" {
			it.Provider = domain.ProviderGmail
		}
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = it.UpdatedAt
		}
		require.NoError(t, db.Create(it).Error)
	}
}

func TestUpsertSnapshotProtectsInsertOnlyFields(t *testing.T) {
	db, repo := newItemRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertSnapshot(ctx, &domain.KanbanItem{
		UserID: "u1", MessageID: "m1", Subject: "v1", Status: domain.StatusTodo,
	})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, domain.StatusTodo, first.Status)
	assert.Equal(t, domain.ProviderGmail, first.Provider)

	require.NoError(t, repo.SetSummary(ctx, "u1", "m1", "cached", base))

	second, err := repo.UpsertSnapshot(ctx, &domain.KanbanItem{
		UserID: "u1", MessageID: "m1", Subject: "v2", Status: domain.StatusInbox, HasAttachments: true,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusTodo, second.Status, "status is set on insert only")
	assert.Equal(t, "v2", second.Subject)
	assert.True(t, second.HasAttachments)
	assert.Equal(t, "cached", second.Summary)

	var count int64
	db.Model(&domain.KanbanItem{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestFindByMessageIDs(t *testing.T) {
	db, repo := newItemRepo(t)
	seed(t, db,
		&domain.KanbanItem{UserID: "u1", MessageID: "a", Status: domain.StatusInbox},
		&domain.KanbanItem{UserID: "u1", MessageID: "b", Status: domain.StatusInbox},
		&domain.KanbanItem{UserID: "u2", MessageID: "c", Status: domain.StatusInbox},
	)

	got, err := repo.FindByMessageIDs(context.Background(), "u1", []string{"a", "c", "zz"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "a")

	missing, err := repo.FindByMessageID(context.Background(), "u2", "a")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListByStatusPaginatesNewestFirst(t *testing.T) {
	db, repo := newItemRepo(t)
	for i := 0; i < 5; i++ {
		seed(t, db, &domain.KanbanItem{
			UserID: "u1", MessageID: string(rune('a' + i)), Status: domain.StatusTodo,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	seed(t, db, &domain.KanbanItem{UserID: "u1", MessageID: "x", Status: domain.StatusDone})
	ctx := context.Background()

	page1, err := repo.ListByStatus(ctx, "u1", domain.StatusTodo, 0, 2)
	require.NoError(t, err)
	page2, err := repo.ListByStatus(ctx, "u1", domain.StatusTodo, 2, 2)
	require.NoError(t, err)

	ids := func(items []*domain.KanbanItem) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.MessageID)
		}
		return out
	}
	assert.Equal(t, []string{"e", "d"}, ids(page1))
	assert.Equal(t, []string{"c", "b"}, ids(page2))

	count, err := repo.CountByStatus(ctx, "u1", domain.StatusTodo)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestUpdateStatusClearsSnooze(t *testing.T) {
	db, repo := newItemRepo(t)
	seed(t, db, &domain.KanbanItem{
		UserID: "u1", MessageID: "m1", Status: domain.StatusSnoozed,
		OriginalStatus: strPtr(domain.StatusTodo), SnoozeUntil: timePtr(base.Add(time.Hour)),
	})
	ctx := context.Background()

	require.NoError(t, repo.UpdateStatus(ctx, "u1", "m1", domain.StatusDone))
	got, err := repo.FindByMessageID(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Nil(t, got.OriginalStatus)
	assert.Nil(t, got.SnoozeUntil)
	assert.NoError(t, got.Validate())

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "u1", "nope", domain.StatusDone), domain.ErrNotFound)
}

func TestCorrectStatusSkipsSnoozed(t *testing.T) {
	db, repo := newItemRepo(t)
	seed(t, db,
		&domain.KanbanItem{UserID: "u1", MessageID: "a", Status: domain.StatusTodo},
		&domain.KanbanItem{UserID: "u1", MessageID: "b", Status: domain.StatusSnoozed,
			OriginalStatus: strPtr(domain.StatusTodo), SnoozeUntil: timePtr(base)},
		&domain.KanbanItem{UserID: "u1", MessageID: "c", Status: domain.StatusInbox},
	)
	ctx := context.Background()

	n, err := repo.CorrectStatus(ctx, "u1", []string{"a", "b", "c"}, domain.StatusInbox)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	b, _ := repo.FindByMessageID(ctx, "u1", "b")
	assert.Equal(t, domain.StatusSnoozed, b.Status)
}

func TestWakeSnoozedIsIdempotent(t *testing.T) {
	db, repo := newItemRepo(t)
	now := base.Add(24 * time.Hour)
	seed(t, db,
		&domain.KanbanItem{UserID: "u1", MessageID: "due", Status: domain.StatusSnoozed,
			OriginalStatus: strPtr(domain.StatusInProgress), SnoozeUntil: timePtr(now.Add(-time.Minute))},
		&domain.KanbanItem{UserID: "u1", MessageID: "later", Status: domain.StatusSnoozed,
			OriginalStatus: strPtr(domain.StatusTodo), SnoozeUntil: timePtr(now.Add(time.Hour))},
	)
	ctx := context.Background()

	due, err := repo.FindExpiredSnoozed(ctx, now, 100)
	require.NoError(t, err)
	require.Len(t, due, 1)

	ids := []string{due[0].ID}
	woke, err := repo.WakeSnoozed(ctx, ids, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, woke)

	again, err := repo.WakeSnoozed(ctx, ids, now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, again)

	got, _ := repo.FindByMessageID(ctx, "u1", "due")
	assert.Equal(t, domain.StatusInProgress, got.Status)
	assert.NoError(t, got.Validate())

	later, _ := repo.FindByMessageID(ctx, "u1", "later")
	assert.Equal(t, domain.StatusSnoozed, later.Status)
}

func TestWakeSnoozedDefaultsToInbox(t *testing.T) {
	db, repo := newItemRepo(t)
	// a snoozed row without an original status wakes into INBOX
	seed(t, db, &domain.KanbanItem{UserID: "u1", MessageID: "m", Status: domain.StatusSnoozed, SnoozeUntil: timePtr(base)})
	item, _ := repo.FindByMessageID(context.Background(), "u1", "m")

	n, err := repo.WakeSnoozed(context.Background(), []string{item.ID}, base.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	item, _ = repo.FindByMessageID(context.Background(), "u1", "m")
	assert.Equal(t, domain.StatusInbox, item.Status)
}

func TestMigrateOrphans(t *testing.T) {
	db, repo := newItemRepo(t)
	seed(t, db,
		&domain.KanbanItem{UserID: "u1", MessageID: "keep", Status: domain.StatusInbox},
		&domain.KanbanItem{UserID: "u1", MessageID: "orphan", Status: "WAITING"},
		&domain.KanbanItem{UserID: "u1", MessageID: "sleeping", Status: domain.StatusSnoozed,
			OriginalStatus: strPtr("WAITING"), SnoozeUntil: timePtr(base)},
		&domain.KanbanItem{UserID: "u2", MessageID: "other", Status: "WAITING"},
	)
	ctx := context.Background()

	n, err := repo.MigrateOrphans(ctx, "u1", []string{domain.StatusInbox, domain.StatusDone}, domain.StatusInbox)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	orphan, _ := repo.FindByMessageID(ctx, "u1", "orphan")
	assert.Equal(t, domain.StatusInbox, orphan.Status)
	sleeping, _ := repo.FindByMessageID(ctx, "u1", "sleeping")
	assert.Equal(t, domain.StatusSnoozed, sleeping.Status)
	other, _ := repo.FindByMessageID(ctx, "u2", "other")
	assert.Equal(t, "WAITING", other.Status)
}

func TestEmbeddingBookkeeping(t *testing.T) {
	db, repo := newItemRepo(t)
	seed(t, db,
		&domain.KanbanItem{ID: "1", UserID: "u1", MessageID: "a", Status: domain.StatusInbox},
		&domain.KanbanItem{ID: "2", UserID: "u1", MessageID: "b", Status: domain.StatusInbox},
		&domain.KanbanItem{ID: "3", UserID: "u2", MessageID: "c", Status: domain.StatusInbox},
	)
	ctx := context.Background()

	require.NoError(t, repo.MarkEmbedded(ctx, "u1", "b", base))

	pending, err := repo.ListWithoutEmbedding(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "1", pending[0].ID)

	rest, err := repo.ListWithoutEmbedding(ctx, "1", 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "3", rest[0].ID)

	count, err := repo.CountWithoutEmbedding(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	b, _ := repo.FindByMessageID(ctx, "u1", "b")
	assert.True(t, b.HasEmbedding)
	require.NotNil(t, b.EmbeddingGeneratedAt)
}

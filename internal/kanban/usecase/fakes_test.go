package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
	"kanban-mail-backend/internal/kanban/repository"
	"kanban-mail-backend/internal/testutil"
	"kanban-mail-backend/pkg/vector"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type modifyCall struct {
	MessageID string
	Add       []string
	Remove    []string
}

// fakeMailbox serves labels and message listings from memory. Page tokens
// are plain offsets.
type fakeMailbox struct {
	mu sync.Mutex

	labels     []domain.Label
	byLabel    map[string][]string
	details    map[string]*domain.MessageDetail
	estimates  map[string]int
	failDetail map[string]bool
	listErr    map[string]error
	labelsErr  error
	modifyErr  error
	watchErr   error

	modified   []modifyCall
	watched    []string
	labelCalls int
	listCalls  int
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		byLabel:    map[string][]string{},
		details:    map[string]*domain.MessageDetail{},
		estimates:  map[string]int{},
		failDetail: map[string]bool{},
		listErr:    map[string]error{},
	}
}

// addMessage files a message under the given labels, newest last added first.
func (f *fakeMailbox) addMessage(id, from, subject string, labels ...string) {
	f.details[id] = &domain.MessageDetail{
		ID:       id,
		ThreadID: "t-" + id,
		Snippet:  "snippet of " + subject,
		LabelIDs: labels,
		Headers:  map[string]string{"from": from, "subject": subject},
		BodyText: "body of " + subject,
	}
	for _, l := range labels {
		f.byLabel[l] = append(f.byLabel[l], id)
	}
}

func (f *fakeMailbox) ListMessages(ctx context.Context, labelID string, pageSize int, pageToken string) (*domain.MessagePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.listErr[labelID]; err != nil {
		return nil, err
	}

	ids := f.byLabel[labelID]
	start, _ := strconv.Atoi(pageToken)
	if start > len(ids) {
		start = len(ids)
	}
	end := start + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	page := &domain.MessagePage{
		IDs:                append([]string(nil), ids[start:end]...),
		ResultSizeEstimate: len(ids),
	}
	if est, ok := f.estimates[labelID]; ok {
		page.ResultSizeEstimate = est
	}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeMailbox) GetMessageDetail(ctx context.Context, messageID string) (*domain.MessageDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDetail[messageID] {
		return nil, errors.New("message unavailable")
	}
	d, ok := f.details[messageID]
	if !ok {
		return nil, errors.New("no such message")
	}
	if d == nil {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeMailbox) ListLabels(ctx context.Context) ([]domain.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labelCalls++
	if f.labelsErr != nil {
		return nil, f.labelsErr
	}
	return append([]domain.Label(nil), f.labels...), nil
}

func (f *fakeMailbox) ModifyLabels(ctx context.Context, messageID string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modifyErr != nil {
		return f.modifyErr
	}
	f.modified = append(f.modified, modifyCall{MessageID: messageID, Add: add, Remove: remove})
	for _, l := range remove {
		f.byLabel[l] = removeID(f.byLabel[l], messageID)
	}
	for _, l := range add {
		f.byLabel[l] = append(removeID(f.byLabel[l], messageID), messageID)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeMailbox) Watch(ctx context.Context, topicName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return f.watchErr
	}
	f.watched = append(f.watched, topicName)
	return nil
}

type fakeProvider struct {
	mb  Mailbox
	err error
}

func (p *fakeProvider) ForUser(ctx context.Context, userID string) (Mailbox, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.mb, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) SendToUser(userID string, eventType string, payload interface{}) {
	m.Called(userID, eventType, payload)
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

type mockVectorIndex struct {
	mock.Mock
}

func (m *mockVectorIndex) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *mockVectorIndex) Upsert(ctx context.Context, messageID, userID string, vec []float32, meta vector.Metadata) bool {
	return m.Called(ctx, messageID, userID, vec, meta).Bool(0)
}

func (m *mockVectorIndex) SearchSimilar(ctx context.Context, userID string, vec []float32, limit int, scoreThreshold float64) []vector.Hit {
	hits, _ := m.Called(ctx, userID, vec, limit, scoreThreshold).Get(0).([]vector.Hit)
	return hits
}

func (m *mockVectorIndex) GetUniqueContacts(ctx context.Context, userID string, limit int) []vector.Contact {
	contacts, _ := m.Called(ctx, userID, limit).Get(0).([]vector.Contact)
	return contacts
}

// recordingQueue captures jobs instead of running them
type recordingQueue struct {
	mu   sync.Mutex
	jobs []EmbeddingJob
}

func (q *recordingQueue) QueueJob(job EmbeddingJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return true
}

type testEnv struct {
	db       *gorm.DB
	uc       *kanbanUsecase
	mb       *fakeMailbox
	provider *fakeProvider
	items    repository.ItemRepository
	settings repository.SettingsRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t, &domain.KanbanItem{}, &domain.UserSettings{})
	items := repository.NewItemRepository(db)
	settings := repository.NewSettingsRepository(db)
	mb := newFakeMailbox()
	provider := &fakeProvider{mb: mb}

	uc := NewKanbanUsecase(items, settings, provider, Options{TopicName: "projects/p/topics/gmail"}).(*kanbanUsecase)
	uc.now = func() time.Time { return testNow }
	return &testEnv{db: db, uc: uc, mb: mb, provider: provider, items: items, settings: settings}
}

// seedItem inserts a local item directly.
func (e *testEnv) seedItem(t *testing.T, item *domain.KanbanItem) *domain.KanbanItem {
	t.Helper()
	if item.UserID == "" {
		item.UserID = "u1"
	}
	saved, err := e.items.UpsertSnapshot(context.Background(), item)
	require.NoError(t, err)
	if item.Summary != "" || item.OriginalStatus != nil || item.SnoozeUntil != nil || item.LastSummarizedAt != nil {
		saved.Summary = item.Summary
		saved.LastSummarizedAt = item.LastSummarizedAt
		saved.OriginalStatus = item.OriginalStatus
		saved.SnoozeUntil = item.SnoozeUntil
		saved.Status = item.Status
		require.NoError(t, e.items.Save(context.Background(), saved))
	}
	return saved
}

func (e *testEnv) item(t *testing.T, messageID string) *domain.KanbanItem {
	t.Helper()
	it, err := e.items.FindByMessageID(context.Background(), "u1", messageID)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it
}

func messageIDs(items []*domain.KanbanItem) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, it.MessageID)
	}
	return out
}

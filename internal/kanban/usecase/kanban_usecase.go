package usecase

import (
	"time"

	"kanban-mail-backend/internal/kanban/repository"
	"kanban-mail-backend/pkg/ai"
	"kanban-mail-backend/pkg/vector"
)

const (
	DefaultPageSize        = 20
	MaxPageSize            = 100
	DefaultSyncConcurrency = 5
	DefaultSearchWindow    = 500
	DefaultSnoozeBatch     = 100
	DefaultLabelCacheTTL   = 5 * time.Minute

	presyncCount    = 5
	maxListPageSize = 500
	labelCacheSize  = 1024
)

// Options tune the engine. Zero values fall back to the defaults above.
type Options struct {
	PageSize        int
	SyncConcurrency int
	SearchWindow    int
	SnoozeBatchSize int
	LabelCacheTTL   time.Duration
	ScoreThreshold  float64
	// Pub/Sub topic passed to the mailbox watch call
	TopicName string
}

func (o Options) withDefaults() Options {
	if o.PageSize < 1 || o.PageSize > MaxPageSize {
		o.PageSize = DefaultPageSize
	}
	if o.SyncConcurrency < 1 {
		o.SyncConcurrency = DefaultSyncConcurrency
	}
	if o.SearchWindow < 1 {
		o.SearchWindow = DefaultSearchWindow
	}
	if o.SnoozeBatchSize < 1 {
		o.SnoozeBatchSize = DefaultSnoozeBatch
	}
	if o.LabelCacheTTL <= 0 {
		o.LabelCacheTTL = DefaultLabelCacheTTL
	}
	if o.ScoreThreshold <= 0 {
		o.ScoreThreshold = vector.DefaultScoreThreshold
	}
	return o
}

// kanbanUsecase implements KanbanUsecase interface
type kanbanUsecase struct {
	itemRepo     repository.ItemRepository
	settingsRepo repository.SettingsRepository
	mailboxes    MailboxProvider
	labels       *LabelResolver
	opts         Options

	summarizer ai.SummarizerService // optional
	embedder   Embedder             // optional
	vectors    VectorIndex          // optional
	events     EventPublisher       // optional
	embedQueue EmbeddingQueue       // optional

	now func() time.Time
}

// NewKanbanUsecase creates a new instance of kanbanUsecase. AI, vector and
// event collaborators are wired afterwards with the Set methods.
func NewKanbanUsecase(itemRepo repository.ItemRepository, settingsRepo repository.SettingsRepository, mailboxes MailboxProvider, opts Options) KanbanUsecase {
	opts = opts.withDefaults()
	return &kanbanUsecase{
		itemRepo:     itemRepo,
		settingsRepo: settingsRepo,
		mailboxes:    mailboxes,
		labels:       NewLabelResolver(labelCacheSize, opts.LabelCacheTTL),
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetSummarizer allows wiring the AI provider after creation
func (u *kanbanUsecase) SetSummarizer(svc ai.SummarizerService) {
	u.summarizer = svc
}

func (u *kanbanUsecase) SetEmbedder(e Embedder) {
	u.embedder = e
}

func (u *kanbanUsecase) SetVectorIndex(idx VectorIndex) {
	u.vectors = idx
}

// SetEventPublisher allows wiring the event publisher after creation
func (u *kanbanUsecase) SetEventPublisher(p EventPublisher) {
	u.events = p
}

func (u *kanbanUsecase) SetEmbeddingQueue(q EmbeddingQueue) {
	u.embedQueue = q
}

func (u *kanbanUsecase) publish(userID, eventType string, payload interface{}) {
	if u.events == nil {
		return
	}
	u.events.SendToUser(userID, eventType, payload)
}

// enqueueEmbedding hands the item to the worker pool if one is wired.
func (u *kanbanUsecase) enqueueEmbedding(userID, messageID string) {
	if u.embedQueue == nil || u.embedder == nil {
		return
	}
	u.embedQueue.QueueJob(EmbeddingJob{UserID: userID, MessageID: messageID})
}

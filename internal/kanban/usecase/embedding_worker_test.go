package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"kanban-mail-backend/internal/kanban/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

// label caches built by earlier tests in the package keep their expiry goroutine
var ignoreLabelCacheJanitor = goleak.IgnoreAnyFunction("github.com/hashicorp/golang-lru/v2/expirable.NewLRU[...].func1")

type countingProcessor struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (p *countingProcessor) GenerateAndStoreEmbedding(ctx context.Context, userID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, userID+"/"+messageID)
	return p.err
}

func TestEmbeddingWorkerDrainsQueueOnStop(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLabelCacheJanitor)

	proc := &countingProcessor{}
	w := NewEmbeddingWorker(proc, 2)
	w.Start()
	w.Start()

	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, w.QueueJob(EmbeddingJob{UserID: "u1", MessageID: id}))
	}
	w.Stop()
	w.Stop()

	assert.ElementsMatch(t, []string{"u1/a", "u1/b", "u1/c"}, proc.seen)
	assert.False(t, w.QueueJob(EmbeddingJob{UserID: "u1", MessageID: "late"}))
}

func TestEmbeddingWorkerQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLabelCacheJanitor)

	w := NewEmbeddingWorker(&countingProcessor{}, 0)
	assert.Equal(t, defaultEmbeddingWorkers, w.workerCount)

	for i := 0; i < embeddingQueueSize; i++ {
		assert.True(t, w.QueueJob(EmbeddingJob{MessageID: "m"}))
	}
	assert.False(t, w.QueueJob(EmbeddingJob{MessageID: "overflow"}))

	w.Stop()
}

func TestEmbeddingWorkerSurvivesFailures(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLabelCacheJanitor)

	proc := &countingProcessor{err: errors.New("store down")}
	w := NewEmbeddingWorker(proc, 1)
	w.Start()
	w.QueueJob(EmbeddingJob{UserID: "u1", MessageID: "x"})
	proc.mu.Lock()
	proc.err = domain.ErrNotFound
	proc.mu.Unlock()
	w.QueueJob(EmbeddingJob{UserID: "u1", MessageID: "y"})
	w.Stop()

	assert.Len(t, proc.seen, 2)
}

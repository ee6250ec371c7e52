package usecase

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"kanban-mail-backend/internal/kanban/domain"
)

const (
	defaultEmbeddingWorkers = 3
	embeddingQueueSize      = 500
	embeddingJobTimeout     = 60 * time.Second
)

// EmbeddingJob asks for one item to be embedded
type EmbeddingJob struct {
	UserID    string
	MessageID string
}

// EmbeddingProcessor does the actual work of a job
type EmbeddingProcessor interface {
	GenerateAndStoreEmbedding(ctx context.Context, userID, messageID string) error
}

// EmbeddingWorker runs embedding jobs in the background
type EmbeddingWorker struct {
	processor   EmbeddingProcessor
	jobQueue    chan EmbeddingJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// NewEmbeddingWorker creates a new embedding worker pool
func NewEmbeddingWorker(processor EmbeddingProcessor, workerCount int) *EmbeddingWorker {
	if workerCount <= 0 {
		workerCount = defaultEmbeddingWorkers
	}

	return &EmbeddingWorker{
		processor:   processor,
		jobQueue:    make(chan EmbeddingJob, embeddingQueueSize),
		workerCount: workerCount,
	}
}

// Start starts the workers
func (w *EmbeddingWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}

	for i := 0; i < w.workerCount; i++ {
		w.workerWg.Add(1)
		go w.worker(i)
	}
	w.started = true
	log.Printf("[EmbeddingWorker] Started %d workers", w.workerCount)
}

// Stop drains the queue and waits for the workers to finish
func (w *EmbeddingWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobQueue)
	w.mu.Unlock()

	w.workerWg.Wait()
	log.Println("[EmbeddingWorker] All workers stopped")
}

func (w *EmbeddingWorker) worker(id int) {
	defer w.workerWg.Done()

	for job := range w.jobQueue {
		w.processJob(job)
	}

	log.Printf("[EmbeddingWorker] Worker %d stopped", id)
}

func (w *EmbeddingWorker) processJob(job EmbeddingJob) {
	ctx, cancel := context.WithTimeout(context.Background(), embeddingJobTimeout)
	defer cancel()

	err := w.processor.GenerateAndStoreEmbedding(ctx, job.UserID, job.MessageID)
	switch {
	case err == nil:
		log.Printf("[EmbeddingWorker] Embedded %s", job.MessageID)
	case errors.Is(err, domain.ErrNotFound):
		// item deleted since it was queued
	default:
		log.Printf("[EmbeddingWorker] Failed to embed %s: %v", job.MessageID, err)
	}
}

// QueueJob adds a single job to the queue (non-blocking)
func (w *EmbeddingWorker) QueueJob(job EmbeddingJob) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	select {
	case w.jobQueue <- job:
		return true
	default:
		return false // Queue full
	}
}

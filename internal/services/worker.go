package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/essay-marker/internal/models"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(essayID uuid.UUID)
}

// PendingFinder lists queued essays. The poller uses it to pick up jobs that
// were never enqueued or were requeued.
type PendingFinder interface {
	FindPendingJobs(limit int) ([]models.Essay, error)
}

// JobFunc processes one essay.
type JobFunc func(ctx context.Context, essayID uuid.UUID) error

type worker struct {
	pending      PendingFinder
	process      JobFunc
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	cancel       context.CancelFunc
}

func NewWorker(pending PendingFinder, process JobFunc, concurrency int, pollInterval time.Duration) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &worker{
		pending:      pending,
		process:      process,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	ctx, w.cancel = context.WithCancel(ctx)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker. In-flight jobs are canceled and requeue themselves.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker...")
		close(w.stopChan)
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()
		log.Println("✅ Worker stopped")
	})
}

// EnqueueJob implements Worker. When the queue is full the job is left for
// the poller.
func (w *worker) EnqueueJob(essayID uuid.UUID) {
	select {
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue job %s\n", essayID)
	case w.jobQueue <- essayID:
		log.Printf("📥 Job %s enqueued\n", essayID)
	default:
		log.Printf("⚠️  Queue full, job %s left for the poller\n", essayID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log.Printf("🚀 Worker %d started processing jobs\n", workerID)

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case essayID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing job %s\n", workerID, essayID)
			if err := w.process(ctx, essayID); err != nil {
				log.Printf("❌ Worker #%d failed to process job %s: %v\n", workerID, essayID, err)
			} else {
				log.Printf("✅ Worker #%d completed job %s\n", workerID, essayID)
			}
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Println("🔄 Starting pending jobs poller")

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Pending jobs poller stopped")
			return
		case <-ticker.C:
			pendingJobs, err := w.pending.FindPendingJobs(10)
			if err != nil {
				log.Printf("⚠️  Failed to fetch pending jobs: %v\n", err)
				continue
			}

			if len(pendingJobs) > 0 {
				log.Printf("📋 Found %d pending jobs\n", len(pendingJobs))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

package services

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"thesisguard/internal/models"
)

// DetectionJob is one submission's worth of dispatched checks.
type DetectionJob struct {
	SubmissionID uuid.UUID
	DocumentRef  string
	MimeType     string
	Checks       []models.FindingKind
}

// Dispatcher is the queue the pipeline hands detection work to. Enqueue
// must not block intake.
type Dispatcher interface {
	Enqueue(job DetectionJob)
}

// JobHandler processes one detection job. Errors are logged; the submission
// stays in processing for manual attention.
type JobHandler func(ctx context.Context, job DetectionJob) error

type Worker interface {
	Dispatcher
	Start(ctx context.Context, handle JobHandler)
	Stop()
}

type worker struct {
	jobQueue    chan DetectionJob
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
}

func NewWorker(concurrency int) Worker {
	return &worker{
		jobQueue:    make(chan DetectionJob, 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context, handle JobHandler) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1, handle)
	}

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	log.Println("🛑 Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("✅ Worker stopped")
}

// Enqueue implements Dispatcher.
func (w *worker) Enqueue(job DetectionJob) {
	select {
	case w.jobQueue <- job:
		log.Printf("📥 Detection for %s enqueued\n", job.SubmissionID)
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue detection for %s\n", job.SubmissionID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int, handle JobHandler) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case job := <-w.jobQueue:
			log.Printf("👷 Worker #%d running checks for %s\n", workerID, job.SubmissionID)
			if err := handle(ctx, job); err != nil {
				log.Printf("❌ Worker #%d detection for %s failed: %v\n", workerID, job.SubmissionID, err)
			} else {
				log.Printf("✅ Worker #%d finished checks for %s\n", workerID, job.SubmissionID)
			}
		}
	}
}

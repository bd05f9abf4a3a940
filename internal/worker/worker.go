package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driving"
)

// interruptedReason is recorded for jobs found running after a worker died mid-save.
const interruptedReason = "save interrupted before completion; resubmit to retry"

// DefaultJobTimeout bounds one save. It stays below the queues' ten minute claim timeout
// so a slow save is not redelivered while it still runs.
const DefaultJobTimeout = 5 * time.Minute

// QueueObserver receives periodic queue statistics.
type QueueObserver interface {
	ObserveQueue(stats *driven.QueueStats)
}

// Worker pulls save jobs from the job queue and runs them.
type Worker struct {
	jobQueue driven.JobQueue
	jobs     driving.JobService
	observer QueueObserver
	logger   *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds
	statsInterval  time.Duration
	jobTimeout     time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	JobQueue       driven.JobQueue
	Jobs           driving.JobService
	Observer       QueueObserver // optional
	Logger         *slog.Logger
	Concurrency    int           // Number of concurrent job processors
	DequeueTimeout int           // Seconds to wait for a job before checking again
	StatsInterval  time.Duration // How often queue stats are reported to Observer
	JobTimeout     time.Duration // Upper bound on one save; default DefaultJobTimeout
}

// NewWorker creates a new job worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	statsInterval := cfg.StatsInterval
	if statsInterval <= 0 {
		statsInterval = 15 * time.Second
	}

	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}

	return &Worker{
		jobQueue:       cfg.JobQueue,
		jobs:           cfg.Jobs,
		observer:       cfg.Observer,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		statsInterval:  statsInterval,
		jobTimeout:     jobTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	if w.observer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.statsLoop(ctx)
		}()
	}

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker. Jobs in flight run to completion.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		job, err := w.jobQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue job", "error", err)
			w.backoff(ctx, time.Second)
			continue
		}

		if job == nil {
			continue
		}

		w.processJob(ctx, job, logger)
	}
}

func (w *Worker) backoff(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// processJob runs a single job and acknowledges it once it reached a terminal state.
// A job whose running mark never landed stays unacknowledged and is redelivered.
// Cancelling ctx stops the loop but not a job already taken; it is bounded by jobTimeout instead.
func (w *Worker) processJob(ctx context.Context, job *domain.SaveJob, logger *slog.Logger) {
	logger = logger.With("job_id", job.ID, "user_id", job.UserID, "collection_id", job.CollectionID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.jobTimeout)
	defer cancel()

	switch job.Status {
	case domain.JobStatusSucceeded, domain.JobStatusFailed:
		// finished before the previous ack landed
		logger.Info("acknowledging finished job", "status", job.Status)
		w.ack(ctx, job, logger)
		return
	case domain.JobStatusRunning:
		// Page writes are not idempotent, so a redelivered running job is failed instead of re-run
		logger.Warn("job was interrupted mid-save")
		job.MarkFailed(interruptedReason)
		if err := w.jobQueue.Update(ctx, job); err != nil {
			logger.Error("failed to record interrupted job", "error", err)
			return
		}
		w.ack(ctx, job, logger)
		return
	}

	logger.Info("processing job")
	startTime := time.Now()

	_, err := w.jobs.Run(ctx, job)
	duration := time.Since(startTime)

	if !job.IsTerminal() {
		logger.Error("job did not reach a final state", "duration", duration, "error", err)
		return
	}

	if err != nil {
		logger.Warn("job failed", "duration", duration, "error", err)
	} else {
		logger.Info("job completed", "duration", duration)
	}

	w.ack(ctx, job, logger)
}

func (w *Worker) ack(ctx context.Context, job *domain.SaveJob, logger *slog.Logger) {
	if err := w.jobQueue.Ack(ctx, job.ID); err != nil {
		logger.Error("failed to ack job", "ack_error", err)
	}
}

// statsLoop reports queue depth to the observer until the worker stops.
func (w *Worker) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(w.statsInterval)
	defer ticker.Stop()

	for {
		w.reportStats(ctx)
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) reportStats(ctx context.Context) {
	stats, err := w.jobQueue.Stats(ctx)
	if err != nil {
		w.logger.Debug("failed to read queue stats", "error", err)
		return
	}
	w.observer.ObserveQueue(stats)
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.jobQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}

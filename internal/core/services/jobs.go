package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.JobService = (*JobTracker)(nil)

// JobTracker records asynchronous saves and executes them.
// A job moves queued -> running -> succeeded|failed and is never deleted.
type JobTracker struct {
	queue   driven.JobQueue
	clips   driving.ClipService
	metrics driven.Metrics
	logger  *slog.Logger
}

// JobTrackerConfig holds dependencies for JobTracker.
type JobTrackerConfig struct {
	Queue   driven.JobQueue
	Clips   driving.ClipService
	Metrics driven.Metrics
	Logger  *slog.Logger
}

// NewJobTracker creates a new job tracker.
func NewJobTracker(cfg JobTrackerConfig) *JobTracker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &JobTracker{
		queue:   cfg.Queue,
		clips:   cfg.Clips,
		metrics: metrics,
		logger:  logger,
	}
}

// Enqueue records a queued job. A run id already recorded for the user returns that job.
func (t *JobTracker) Enqueue(ctx context.Context, userID string, req *domain.SaveRequest) (*domain.EnqueueResult, error) {
	if req == nil || strings.TrimSpace(req.CollectionID) == "" {
		return nil, fmt.Errorf("%w: collection id required", domain.ErrInvalidInput)
	}

	runID := strings.TrimSpace(req.Options.RunID)
	if runID != "" {
		existing, err := t.queue.FindByRunID(ctx, userID, runID)
		if err != nil {
			return nil, fmt.Errorf("find job by run id: %w", err)
		}
		if existing != nil {
			return &domain.EnqueueResult{Enqueued: true, JobID: existing.ID, RunID: existing.RunID}, nil
		}
	}

	job := domain.NewSaveJob(userID, req, runID)
	if err := t.queue.Enqueue(ctx, job); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// a concurrent enqueue with the same run id won
			existing, ferr := t.queue.FindByRunID(ctx, userID, job.RunID)
			if ferr == nil && existing != nil {
				return &domain.EnqueueResult{Enqueued: true, JobID: existing.ID, RunID: existing.RunID}, nil
			}
		}
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	t.logger.Info("job enqueued", "job_id", job.ID, "run_id", job.RunID, "user_id", userID)
	return &domain.EnqueueResult{Enqueued: true, JobID: job.ID, RunID: job.RunID}, nil
}

// GetJob returns the user's job. Jobs owned by someone else are reported as not found.
func (t *JobTracker) GetJob(ctx context.Context, userID, jobID string) (*domain.SaveJob, error) {
	job, err := t.queue.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil || job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	out := *job
	out.Request = nil
	return &out, nil
}

// Run executes a queued job. The job is marked running before any destination write and
// always ends succeeded or failed, even when ctx is cancelled mid-way.
func (t *JobTracker) Run(ctx context.Context, job *domain.SaveJob) (*domain.SaveResult, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: nil job", domain.ErrInvalidInput)
	}
	if job.IsTerminal() {
		return nil, fmt.Errorf("%w: job %s already %s", domain.ErrInvalidInput, job.ID, job.Status)
	}

	logger := t.logger.With("job_id", job.ID, "user_id", job.UserID)

	job.MarkRunning()
	if err := t.queue.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("mark job running: %w", err)
	}

	var (
		result *domain.SaveResult
		err    error
	)
	if job.Request == nil {
		err = fmt.Errorf("%w: job has no request", domain.ErrInvalidInput)
	} else {
		result, err = t.clips.Save(ctx, job.UserID, job.Request)
	}

	// the terminal write must land even if the caller gave up
	finishCtx := context.WithoutCancel(ctx)
	elapsed := time.Since(*job.StartedAt)

	if err != nil {
		job.MarkFailed(err.Error())
		if uerr := t.queue.Update(finishCtx, job); uerr != nil {
			logger.Error("failed to record job failure", "error", uerr)
		}
		t.metrics.JobFinished(string(domain.JobStatusFailed), elapsed)
		logger.Warn("job failed", "error", err, "duration", elapsed)
		return nil, err
	}

	job.MarkSucceeded(result.PageID, result.PageURL, result.Warnings)
	if uerr := t.queue.Update(finishCtx, job); uerr != nil {
		logger.Error("failed to record job success", "error", uerr)
	}
	t.metrics.JobFinished(string(domain.JobStatusSucceeded), elapsed)
	logger.Info("job succeeded", "page_id", result.PageID, "duration", elapsed)
	return result, nil
}

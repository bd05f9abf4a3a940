package driven

import (
	"context"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// JobQueue stores save jobs and hands queued ones to workers.
// Implementations can use Redis (preferred) or Postgres (fallback).
// Job records are retained after completion so callers can poll them.
type JobQueue interface {
	// Enqueue stores a queued job and makes it available to workers.
	// Returns domain.ErrAlreadyExists when the user already has a job with the same run id.
	Enqueue(ctx context.Context, job *domain.SaveJob) error

	// DequeueWithTimeout retrieves the next queued job, waiting up to timeout seconds.
	// Returns nil, nil if timeout is reached with no jobs available.
	// The job is not handed to other workers until it is acknowledged or abandoned.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.SaveJob, error)

	// Ack removes the job from the pending set. The job record is kept.
	Ack(ctx context.Context, jobID string) error

	// Update persists the job's current state.
	Update(ctx context.Context, job *domain.SaveJob) error

	// GetJob retrieves a job by ID. Returns nil, nil when absent.
	GetJob(ctx context.Context, jobID string) (*domain.SaveJob, error)

	// FindByRunID returns the user's job with the given run id. Returns nil, nil when absent.
	FindByRunID(ctx context.Context, userID, runID string) (*domain.SaveJob, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}

// QueueStats contains queue statistics
type QueueStats struct {
	// QueuedCount is the number of jobs waiting to be processed
	QueuedCount int64 `json:"queued_count"`

	// RunningCount is the number of jobs currently being processed
	RunningCount int64 `json:"running_count"`
}

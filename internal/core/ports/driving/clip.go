package driving

import (
	"context"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// ClipService turns a captured page into a destination record
type ClipService interface {
	// Save runs the full pipeline synchronously and returns the created page
	Save(ctx context.Context, userID string, req *domain.SaveRequest) (*domain.SaveResult, error)
}

// JobService tracks asynchronous saves
type JobService interface {
	// Enqueue records a queued job for req. A run id already recorded for the user returns the existing job.
	Enqueue(ctx context.Context, userID string, req *domain.SaveRequest) (*domain.EnqueueResult, error)

	// GetJob returns the user's job or domain.ErrNotFound
	GetJob(ctx context.Context, userID, jobID string) (*domain.SaveJob, error)

	// Run executes a queued job through its lifecycle
	Run(ctx context.Context, job *domain.SaveJob) (*domain.SaveResult, error)
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// JobStatus represents the current state of a save job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// MaxJobErrorLength bounds the stored failure reason
const MaxJobErrorLength = 1000

// SaveJob records the lifecycle of one asynchronous save
type SaveJob struct {
	// ID is the unique, time-sortable identifier for this job
	ID string `json:"id"`

	// UserID owns the job; only the owner may poll it
	UserID string `json:"userId"`

	// CollectionID is the destination collection
	CollectionID string `json:"collectionId"`

	// Status is the current lifecycle state
	Status JobStatus `json:"status"`

	// RunID is the caller-supplied correlation id
	RunID string `json:"runId,omitempty"`

	// ResultPageID and ResultPageURL are set on success
	ResultPageID  string `json:"resultPageId,omitempty"`
	ResultPageURL string `json:"resultPageUrl,omitempty"`

	// Error holds the failure reason, bounded to MaxJobErrorLength runes
	Error string `json:"error,omitempty"`

	// Warnings are non-fatal notes recorded on success
	Warnings []string `json:"warnings,omitempty"`

	// SourceURL is the captured page URL
	SourceURL string `json:"sourceUrl"`

	// Request is the captured save request executed by the worker
	Request *SaveRequest `json:"request,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewSaveJob creates a queued job for req. An empty runID gets a fresh one.
func NewSaveJob(userID string, req *SaveRequest, runID string) *SaveJob {
	now := time.Now()
	if runID == "" {
		runID = uuid.NewString()
	}
	job := &SaveJob{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Status:    JobStatusQueued,
		RunID:     runID,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req != nil {
		job.CollectionID = req.CollectionID
		job.SourceURL = req.Page.URL
	}
	return job
}

// IsTerminal returns true once the job succeeded or failed
func (j *SaveJob) IsTerminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

// MarkRunning moves a queued job to running
func (j *SaveJob) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkSucceeded records the created page
func (j *SaveJob) MarkSucceeded(pageID, pageURL string, warnings []string) {
	now := time.Now()
	j.Status = JobStatusSucceeded
	j.ResultPageID = pageID
	j.ResultPageURL = pageURL
	j.Warnings = warnings
	j.Error = ""
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed records a bounded failure reason
func (j *SaveJob) MarkFailed(reason string) {
	now := time.Now()
	if reason == "" {
		reason = "unknown error"
	}
	j.Status = JobStatusFailed
	j.Error = Truncate(reason, MaxJobErrorLength)
	j.ResultPageID = ""
	j.ResultPageURL = ""
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// EnqueueResult is returned to the caller after a job is accepted
type EnqueueResult struct {
	Enqueued bool   `json:"enqueued"`
	JobID    string `json:"jobId"`
	RunID    string `json:"runId"`
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure Queue implements JobQueue
var _ driven.JobQueue = (*Queue)(nil)

// DefaultClaimTimeout is how long a claimed job stays invisible before another worker may take it
const DefaultClaimTimeout = 10 * time.Minute

// pollInterval is the wait between empty polls while DequeueWithTimeout blocks
const pollInterval = 500 * time.Millisecond

const uniqueViolation = "23505"

// Queue implements JobQueue using PostgreSQL with SKIP LOCKED for reliable job hand-off.
// This is the fallback queue when Redis is not available.
// Assumes the save_jobs table has been created via postgres.DB.InitSchema.
type Queue struct {
	db           *sql.DB
	claimTimeout time.Duration
}

// NewQueue creates a new PostgreSQL-backed job queue.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db, claimTimeout: DefaultClaimTimeout}
}

const jobColumns = `
	id, user_id, collection_id, run_id, status, result_page_id, result_page_url,
	error, warnings, source_url, request, created_at, updated_at, started_at, completed_at
`

// Enqueue stores a queued job
func (q *Queue) Enqueue(ctx context.Context, job *domain.SaveJob) error {
	request, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	query := `
		INSERT INTO save_jobs (` + jobColumns + `, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, TRUE)
	`

	_, err = q.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.CollectionID,
		job.RunID,
		job.Status,
		nullString(job.ResultPageID),
		nullString(job.ResultPageURL),
		nullString(job.Error),
		pq.Array(job.Warnings),
		job.SourceURL,
		request,
		job.CreatedAt,
		job.UpdatedAt,
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("%w: run %s", domain.ErrAlreadyExists, job.RunID)
		}
		return fmt.Errorf("insert job: %w", err)
	}

	return nil
}

// DequeueWithTimeout claims the oldest pending job, polling for up to timeout seconds
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.SaveJob, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		job, err := q.claim(ctx)
		if err != nil || job != nil {
			return job, err
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(pollInterval):
		}
	}
}

func (q *Queue) claim(ctx context.Context) (*domain.SaveJob, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectQuery := `
		SELECT ` + jobColumns + `
		FROM save_jobs
		WHERE pending
		  AND (claimed_at IS NULL OR claimed_at < $1)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	now := time.Now()
	job, err := scanJob(tx.QueryRowContext(ctx, selectQuery, now.Add(-q.claimTimeout)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE save_jobs SET claimed_at = $1 WHERE id = $2`, now, job.ID); err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return job, nil
}

// Ack takes the job out of the pending set; the record is kept
func (q *Queue) Ack(ctx context.Context, jobID string) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE save_jobs SET pending = FALSE, claimed_at = NULL WHERE id = $1`,
		jobID)
	if err != nil {
		return fmt.Errorf("ack job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Update persists the job's lifecycle fields
func (q *Queue) Update(ctx context.Context, job *domain.SaveJob) error {
	query := `
		UPDATE save_jobs
		SET status = $1, result_page_id = $2, result_page_url = $3, error = $4,
		    warnings = $5, updated_at = $6, started_at = $7, completed_at = $8
		WHERE id = $9
	`

	result, err := q.db.ExecContext(ctx, query,
		job.Status,
		nullString(job.ResultPageID),
		nullString(job.ResultPageURL),
		nullString(job.Error),
		pq.Array(job.Warnings),
		job.UpdatedAt,
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*domain.SaveJob, error) {
	job, err := scanJob(q.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM save_jobs WHERE id = $1`, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

// FindByRunID returns the user's job for runID
func (q *Queue) FindByRunID(ctx context.Context, userID, runID string) (*domain.SaveJob, error) {
	job, err := scanJob(q.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM save_jobs WHERE user_id = $1 AND run_id = $2`, userID, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query job by run id: %w", err)
	}
	return job, nil
}

// Stats returns queue statistics
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	rows, err := q.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM save_jobs
		WHERE status IN ($1, $2)
		GROUP BY status
	`, domain.JobStatusQueued, domain.JobStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}

		switch domain.JobStatus(status) {
		case domain.JobStatusQueued:
			stats.QueuedCount = count
		case domain.JobStatusRunning:
			stats.RunningCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	return stats, nil
}

// Ping checks database connectivity
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op for the Postgres queue (db connection managed externally)
func (q *Queue) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.SaveJob, error) {
	var (
		job                      domain.SaveJob
		pageID, pageURL, errText sql.NullString
		warnings                 []string
		request                  []byte
		startedAt, completedAt   sql.NullTime
	)

	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.CollectionID,
		&job.RunID,
		&job.Status,
		&pageID,
		&pageURL,
		&errText,
		pq.Array(&warnings),
		&job.SourceURL,
		&request,
		&job.CreatedAt,
		&job.UpdatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	job.ResultPageID = pageID.String
	job.ResultPageURL = pageURL.String
	job.Error = errText.String
	if len(warnings) > 0 {
		job.Warnings = warnings
	}
	if len(request) > 0 && string(request) != "null" {
		job.Request = &domain.SaveRequest{}
		if err := json.Unmarshal(request, job.Request); err != nil {
			return nil, fmt.Errorf("unmarshal request: %w", err)
		}
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

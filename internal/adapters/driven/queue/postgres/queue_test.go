package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

var jobCols = []string{
	"id", "user_id", "collection_id", "run_id", "status", "result_page_id", "result_page_url",
	"error", "warnings", "source_url", "request", "created_at", "updated_at", "started_at", "completed_at",
}

func newQueue(t *testing.T) (*Queue, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewQueue(db), mock
}

func testJob() *domain.SaveJob {
	req := &domain.SaveRequest{CollectionID: "coll-1", Page: domain.PageContext{URL: "https://example.com/a"}}
	return domain.NewSaveJob("user-1", req, "run-1")
}

func jobRow(job *domain.SaveJob) *sqlmock.Rows {
	request, _ := json.Marshal(job.Request)
	return sqlmock.NewRows(jobCols).AddRow(
		job.ID, job.UserID, job.CollectionID, job.RunID, string(job.Status), nil, nil,
		nil, "{}", job.SourceURL, request, job.CreatedAt, job.UpdatedAt, nil, nil,
	)
}

func TestQueue_Enqueue(t *testing.T) {
	q, mock := newQueue(t)
	job := testJob()

	mock.ExpectExec("INSERT INTO save_jobs").
		WithArgs(job.ID, "user-1", "coll-1", "run-1", job.Status,
			nil, nil, nil, sqlmock.AnyArg(), "https://example.com/a", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := q.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestQueue_EnqueueDuplicateRunID(t *testing.T) {
	q, mock := newQueue(t)

	mock.ExpectExec("INSERT INTO save_jobs").
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})

	err := q.Enqueue(context.Background(), testJob())
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestQueue_DequeueClaimsOldestPending(t *testing.T) {
	q, mock := newQueue(t)
	job := testJob()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM save_jobs WHERE pending .+ FOR UPDATE SKIP LOCKED").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(jobRow(job))
	mock.ExpectExec("UPDATE save_jobs SET claimed_at").
		WithArgs(sqlmock.AnyArg(), job.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := q.DequeueWithTimeout(context.Background(), 0)
	if err != nil {
		t.Fatalf("DequeueWithTimeout: %v", err)
	}
	if got == nil || got.ID != job.ID {
		t.Fatalf("expected job %s, got %+v", job.ID, got)
	}
	if got.Request == nil || got.Request.Page.URL != "https://example.com/a" {
		t.Errorf("request not restored: %+v", got.Request)
	}
	if got.Warnings != nil {
		t.Errorf("expected no warnings, got %v", got.Warnings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q, mock := newQueue(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM save_jobs").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	got, err := q.DequeueWithTimeout(context.Background(), 0)
	if err != nil || got != nil {
		t.Errorf("expected nil, nil, got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestQueue_UpdateAndAck(t *testing.T) {
	q, mock := newQueue(t)
	job := testJob()
	job.MarkRunning()
	job.MarkSucceeded("page-1", "https://example.com/page-1", []string{"content truncated"})

	mock.ExpectExec("UPDATE save_jobs SET status").
		WithArgs(domain.JobStatusSucceeded, "page-1", "https://example.com/page-1", nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), job.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE save_jobs SET pending = FALSE").
		WithArgs(job.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE save_jobs SET pending = FALSE").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := q.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := q.Ack(context.Background(), job.ID); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if err := q.Ack(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestQueue_GetJobAndFindByRunID(t *testing.T) {
	q, mock := newQueue(t)
	job := testJob()
	completed := time.Now()
	request, _ := json.Marshal(job.Request)

	mock.ExpectQuery("SELECT .+ FROM save_jobs WHERE id").
		WithArgs(job.ID).
		WillReturnRows(sqlmock.NewRows(jobCols).AddRow(
			job.ID, job.UserID, job.CollectionID, job.RunID, "failed", nil, nil,
			"destination write failed", "{}", job.SourceURL, request, job.CreatedAt, job.UpdatedAt, completed, completed,
		))
	mock.ExpectQuery("SELECT .+ FROM save_jobs WHERE user_id").
		WithArgs("user-1", "run-2").
		WillReturnError(sql.ErrNoRows)

	got, err := q.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != domain.JobStatusFailed || got.Error != "destination write failed" || got.CompletedAt == nil {
		t.Errorf("unexpected job %+v", got)
	}

	missing, err := q.FindByRunID(context.Background(), "user-1", "run-2")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil, got %v, %v", missing, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestQueue_Stats(t *testing.T) {
	q, mock := newQueue(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("queued", 3).
			AddRow("running", 1))

	stats, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.QueuedCount != 3 || stats.RunningCount != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

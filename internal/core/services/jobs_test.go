package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

func TestJobTracker_EnqueueAndPoll(t *testing.T) {
	f := newClipFixture(t)
	ctx := context.Background()

	res, err := f.jobs.Enqueue(ctx, testUser, scenarioRequest())
	require.NoError(t, err)
	assert.True(t, res.Enqueued)
	assert.NotEmpty(t, res.JobID)
	assert.NotEmpty(t, res.RunID)

	job, err := f.jobs.GetJob(ctx, testUser, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Equal(t, "https://x.test/p", job.SourceURL)
	assert.Nil(t, job.Request, "the captured request is not exposed to pollers")

	_, err = f.jobs.GetJob(ctx, "someone-else", res.JobID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.jobs.GetJob(ctx, testUser, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobTracker_EnqueueIdempotentByRunID(t *testing.T) {
	f := newClipFixture(t)
	ctx := context.Background()
	req := scenarioRequest()
	req.Options.RunID = "run-42"

	first, err := f.jobs.Enqueue(ctx, testUser, req)
	require.NoError(t, err)
	second, err := f.jobs.Enqueue(ctx, testUser, req)
	require.NoError(t, err)

	assert.Equal(t, first.JobID, second.JobID)
	assert.Equal(t, "run-42", second.RunID)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.QueuedCount)
}

func TestJobTracker_EnqueueRaceReturnsWinner(t *testing.T) {
	f := newClipFixture(t)
	ctx := context.Background()
	req := scenarioRequest()
	req.Options.RunID = "run-race"

	winner := domain.NewSaveJob(testUser, req, "run-race")
	f.queue.EnqueueFn = func(job *domain.SaveJob) error {
		if job.ID != winner.ID {
			f.queue.EnqueueFn = nil
			require.NoError(t, f.queue.Enqueue(ctx, winner))
		}
		return nil
	}

	res, err := f.jobs.Enqueue(ctx, testUser, req)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, res.JobID)
}

func TestJobTracker_RunSucceeds(t *testing.T) {
	f := newClipFixture(t, `{"title":"Example Post"}`)
	ctx := context.Background()

	enq, err := f.jobs.Enqueue(ctx, testUser, scenarioRequest())
	require.NoError(t, err)
	job, err := f.queue.DequeueWithTimeout(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, job)

	res, err := f.jobs.Run(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, "page-1", res.PageID)

	stored, err := f.queue.GetJob(ctx, enq.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusSucceeded, stored.Status)
	assert.Equal(t, "page-1", stored.ResultPageID)
	assert.Equal(t, "https://dest.test/page-1", stored.ResultPageURL)
	require.NotNil(t, stored.StartedAt)
	require.NotNil(t, stored.CompletedAt)
	assert.False(t, stored.CompletedAt.Before(*stored.StartedAt))
	assert.Empty(t, stored.Error)

	assert.Equal(t, []domain.JobStatus{
		domain.JobStatusQueued,
		domain.JobStatusRunning,
		domain.JobStatusSucceeded,
	}, f.queue.History[enq.JobID])
}

func TestJobTracker_RunFailsOnCreateError(t *testing.T) {
	f := newClipFixture(t, `{"title":"Example Post"}`)
	f.dest.CreatePageFn = func(req *driven.CreatePageRequest) (*driven.CreatedPage, error) {
		return nil, errors.New(strings.Repeat("x", 5000))
	}
	ctx := context.Background()

	enq, err := f.jobs.Enqueue(ctx, testUser, scenarioRequest())
	require.NoError(t, err)
	job, err := f.queue.DequeueWithTimeout(ctx, 1)
	require.NoError(t, err)

	_, err = f.jobs.Run(ctx, job)
	require.Error(t, err)

	stored, err := f.queue.GetJob(ctx, enq.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
	assert.LessOrEqual(t, len([]rune(stored.Error)), domain.MaxJobErrorLength)
	assert.Empty(t, stored.ResultPageID)
	assert.Empty(t, stored.ResultPageURL)
}

func TestJobTracker_RunPartialAppendSucceedsWithWarning(t *testing.T) {
	f := newClipFixture(t, `{"title":"Example Post"}`)
	f.dest.AppendBlocksFn = func(pageID string, blocks []domain.Block) error {
		return errors.New("conflict")
	}
	ctx := context.Background()
	req := scenarioRequest()
	req.Options.SaveArticle = true
	req.Page.ArticleBlocks = articleBlocks(150)

	enq, err := f.jobs.Enqueue(ctx, testUser, req)
	require.NoError(t, err)
	job, err := f.queue.DequeueWithTimeout(ctx, 1)
	require.NoError(t, err)

	_, err = f.jobs.Run(ctx, job)
	require.NoError(t, err)

	stored, _ := f.queue.GetJob(ctx, enq.JobID)
	assert.Equal(t, domain.JobStatusSucceeded, stored.Status)
	assert.NotEmpty(t, stored.ResultPageID)
	require.NotEmpty(t, stored.Warnings)
	assert.Contains(t, stored.Warnings[0], "content truncated")
}

func TestJobTracker_RunRejectsTerminalJob(t *testing.T) {
	f := newClipFixture(t)
	job := domain.NewSaveJob(testUser, scenarioRequest(), "")
	job.MarkSucceeded("p", "u", nil)

	_, err := f.jobs.Run(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJobTracker_RunWithoutRequestFails(t *testing.T) {
	f := newClipFixture(t)
	ctx := context.Background()
	job := domain.NewSaveJob(testUser, nil, "")
	require.NoError(t, f.queue.Enqueue(ctx, job))

	_, err := f.jobs.Run(ctx, job)
	require.Error(t, err)

	stored, _ := f.queue.GetJob(ctx, job.ID)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
}

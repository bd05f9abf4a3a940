package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

const (
	// Stream names
	jobStream = "clipper:jobs"
	jobGroup  = "clipper:workers"

	// Key prefixes
	jobKeyPrefix = "clipper:job:"
	runKeyPrefix = "clipper:job:run:"

	// Default consumer name prefix
	consumerPrefix = "worker-"

	// Claim timeout - how long before a job is considered abandoned
	claimTimeout = 10 * time.Minute

	// Retention for job records so clients can keep polling finished jobs
	jobRetention = 7 * 24 * time.Hour
)

// Verify interface compliance
var _ driven.JobQueue = (*Queue)(nil)

// Queue implements JobQueue using Redis Streams.
// The stream carries job ids only; the job record lives under its own key
// and outlives the stream entry.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a new Redis-backed job queue.
// The consumerName should be unique per worker instance (e.g., hostname + PID).
func NewQueue(client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	q := &Queue{
		client:       client,
		consumerName: consumerName,
	}

	// Create consumer group if it doesn't exist
	err := q.client.XGroupCreateMkStream(context.Background(), jobStream, jobGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

func runKey(userID, runID string) string {
	return runKeyPrefix + userID + ":" + runID
}

// Enqueue stores the job record and pushes its id onto the stream.
// The run id is reserved first so a replayed run never produces a second job.
func (q *Queue) Enqueue(ctx context.Context, job *domain.SaveJob) error {
	if job == nil {
		return errors.New("job is required")
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if job.RunID != "" {
		reserved, err := q.client.SetNX(ctx, runKey(job.UserID, job.RunID), job.ID, jobRetention).Result()
		if err != nil {
			return fmt.Errorf("failed to reserve run id: %w", err)
		}
		if !reserved {
			return fmt.Errorf("%w: run %s", domain.ErrAlreadyExists, job.RunID)
		}
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, data, jobRetention)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: jobStream,
		Values: map[string]interface{}{
			"job_id":  job.ID,
			"user_id": job.UserID,
		},
	})

	if _, err := pipe.Exec(ctx); err != nil {
		if job.RunID != "" {
			q.client.Del(ctx, runKey(job.UserID, job.RunID))
		}
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// DequeueWithTimeout retrieves the next job, waiting up to timeout seconds.
// A timeout of zero polls once without blocking.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.SaveJob, error) {
	// Try to claim abandoned jobs first
	job, err := q.claimAbandonedJob(ctx)
	if err == nil && job != nil {
		return job, nil
	}

	block := time.Duration(-1)
	if timeout > 0 {
		block = time.Duration(timeout) * time.Second
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    jobGroup,
		Consumer: q.consumerName,
		Streams:  []string{jobStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.takeMessage(ctx, streams[0].Messages[0])
}

// takeMessage resolves a stream entry to its job record and remembers the
// entry id for Ack. Entries without a usable record are dropped.
func (q *Queue) takeMessage(ctx context.Context, msg redis.XMessage) (*domain.SaveJob, error) {
	jobID, ok := msg.Values["job_id"].(string)
	if !ok {
		q.drop(ctx, msg.ID)
		return nil, nil
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job data: %w", err)
	}
	if job == nil {
		q.drop(ctx, msg.ID)
		return nil, nil
	}

	if err := q.client.Set(ctx, jobKeyPrefix+job.ID+":msg", msg.ID, jobRetention).Err(); err != nil {
		return nil, fmt.Errorf("failed to record message id: %w", err)
	}

	return job, nil
}

func (q *Queue) drop(ctx context.Context, msgID string) {
	pipe := q.client.Pipeline()
	pipe.XAck(ctx, jobStream, jobGroup, msgID)
	pipe.XDel(ctx, jobStream, msgID)
	_, _ = pipe.Exec(ctx)
}

// Ack removes the job's stream entry. The job record is kept.
func (q *Queue) Ack(ctx context.Context, jobID string) error {
	exists, err := q.client.Exists(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	msgID, err := q.client.Get(ctx, jobKeyPrefix+jobID+":msg").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	pipe := q.client.Pipeline()
	if msgID != "" {
		pipe.XAck(ctx, jobStream, jobGroup, msgID)
		pipe.XDel(ctx, jobStream, msgID)
	}
	pipe.Del(ctx, jobKeyPrefix+jobID+":msg")

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}

	return nil
}

// Update overwrites the job record, keeping it for the retention window.
func (q *Queue) Update(ctx context.Context, job *domain.SaveJob) error {
	exists, err := q.client.Exists(ctx, jobKeyPrefix+job.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.Set(ctx, jobKeyPrefix+job.ID, data, jobRetention).Err(); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*domain.SaveJob, error) {
	data, err := q.client.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.SaveJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// FindByRunID follows the run id reservation to the job record.
func (q *Queue) FindByRunID(ctx context.Context, userID, runID string) (*domain.SaveJob, error) {
	jobID, err := q.client.Get(ctx, runKey(userID, runID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run id: %w", err)
	}
	return q.GetJob(ctx, jobID)
}

// Stats returns queue statistics.
// Entries still in the stream but handed to a consumer count as running.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	length, err := q.client.XLen(ctx, jobStream).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get stream length: %w", err)
	}

	pending, err := q.client.XPending(ctx, jobStream, jobGroup).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get pending entries: %w", err)
	}

	stats := &driven.QueueStats{}
	if pending != nil {
		stats.RunningCount = pending.Count
	}
	stats.QueuedCount = length - stats.RunningCount
	if stats.QueuedCount < 0 {
		stats.QueuedCount = 0
	}

	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources.
func (q *Queue) Close() error {
	// Redis client is shared, don't close it here
	return nil
}

// claimAbandonedJob tries to claim a job that was abandoned by another worker.
func (q *Queue) claimAbandonedJob(ctx context.Context) (*domain.SaveJob, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: jobStream,
		Group:  jobGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   jobStream,
			Group:    jobGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		job, err := q.takeMessage(ctx, claimed[0])
		if err != nil || job == nil {
			continue
		}
		return job, nil
	}

	return nil, nil
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

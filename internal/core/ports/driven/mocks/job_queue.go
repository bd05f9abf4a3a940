package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// MockJobQueue is an in-memory JobQueue
type MockJobQueue struct {
	mu      sync.Mutex
	jobs    map[string]*domain.SaveJob
	pending []string

	// History records every status written through Update, per job
	History map[string][]domain.JobStatus

	// Custom behavior hooks (optional)
	EnqueueFn func(job *domain.SaveJob) error
	DequeueFn func() (*domain.SaveJob, error)
	AckFn     func(jobID string) error
	PingFn    func() error

	acked []string
}

// NewMockJobQueue creates a new MockJobQueue
func NewMockJobQueue() *MockJobQueue {
	return &MockJobQueue{
		jobs:    make(map[string]*domain.SaveJob),
		History: make(map[string][]domain.JobStatus),
	}
}

func (m *MockJobQueue) Enqueue(ctx context.Context, job *domain.SaveJob) error {
	if m.EnqueueFn != nil {
		if err := m.EnqueueFn(job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.jobs {
		if job.RunID != "" && existing.UserID == job.UserID && existing.RunID == job.RunID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *job
	m.jobs[job.ID] = &cp
	m.pending = append(m.pending, job.ID)
	m.History[job.ID] = append(m.History[job.ID], job.Status)
	return nil
}

func (m *MockJobQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.SaveJob, error) {
	if m.DequeueFn != nil {
		return m.DequeueFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		if timeout > 0 {
			// stand in for a blocking read without holding the lock
			m.mu.Unlock()
			select {
			case <-ctx.Done():
			case <-time.After(10 * time.Millisecond):
			}
			m.mu.Lock()
		}
		return nil, nil
	}
	id := m.pending[0]
	m.pending = m.pending[1:]
	cp := *m.jobs[id]
	return &cp, nil
}

func (m *MockJobQueue) Ack(ctx context.Context, jobID string) error {
	m.mu.Lock()
	m.acked = append(m.acked, jobID)
	m.mu.Unlock()
	if m.AckFn != nil {
		return m.AckFn(jobID)
	}
	return nil
}

// Acked returns the ids passed to Ack, in order
func (m *MockJobQueue) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

func (m *MockJobQueue) Update(ctx context.Context, job *domain.SaveJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *job
	m.jobs[job.ID] = &cp
	m.History[job.ID] = append(m.History[job.ID], job.Status)
	return nil
}

func (m *MockJobQueue) GetJob(ctx context.Context, jobID string) (*domain.SaveJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobQueue) FindByRunID(ctx context.Context, userID, runID string) (*domain.SaveJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.UserID == userID && job.RunID == runID {
			cp := *job
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockJobQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &driven.QueueStats{QueuedCount: int64(len(m.pending))}
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusRunning {
			stats.RunningCount++
		}
	}
	return stats, nil
}

func (m *MockJobQueue) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

func (m *MockJobQueue) Close() error { return nil }

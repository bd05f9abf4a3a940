package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// MockCredentialStore is a mock implementation of CredentialStore for testing
type MockCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]*domain.Credential
}

// NewMockCredentialStore creates a new MockCredentialStore
func NewMockCredentialStore(creds ...*domain.Credential) *MockCredentialStore {
	m := &MockCredentialStore{creds: make(map[string]*domain.Credential)}
	for _, c := range creds {
		m.creds[c.ID] = c
	}
	return m
}

func (m *MockCredentialStore) Save(ctx context.Context, cred *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[cred.ID] = cred
	return nil
}

func (m *MockCredentialStore) Get(ctx context.Context, id string) (*domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cred, nil
}

func (m *MockCredentialStore) ListByUser(ctx context.Context, userID string) ([]*domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Credential
	for _, cred := range m.creds {
		if cred.UserID == userID {
			result = append(result, cred)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockCredentialStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.creds, id)
	return nil
}

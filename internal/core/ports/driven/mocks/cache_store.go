package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// MockCacheStore is an in-memory SchemaCacheStore and IndexCacheStore
type MockCacheStore struct {
	mu      sync.RWMutex
	schemas map[string]*domain.CachedSchema
	indexes map[string]*domain.CollectionIndex

	// Unavailable makes every call fail, simulating a down cache
	Unavailable bool
	SaveCount   int
}

// NewMockCacheStore creates a new MockCacheStore
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		schemas: make(map[string]*domain.CachedSchema),
		indexes: make(map[string]*domain.CollectionIndex),
	}
}

var errCacheDown = errors.New("cache unavailable")

func schemaKey(userID, collectionID string) string {
	return userID + "/" + collectionID
}

func (m *MockCacheStore) GetSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return nil, errCacheDown
	}
	entry, ok := m.schemas[schemaKey(userID, collectionID)]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (m *MockCacheStore) SaveSchema(ctx context.Context, entry *domain.CachedSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return errCacheDown
	}
	cp := *entry
	m.schemas[schemaKey(entry.UserID, entry.CollectionID)] = &cp
	m.SaveCount++
	return nil
}

func (m *MockCacheStore) DeleteSchema(ctx context.Context, userID, collectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return errCacheDown
	}
	delete(m.schemas, schemaKey(userID, collectionID))
	return nil
}

func (m *MockCacheStore) GetIndex(ctx context.Context, userID string) (*domain.CollectionIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return nil, errCacheDown
	}
	idx, ok := m.indexes[userID]
	if !ok {
		return nil, nil
	}
	cp := *idx
	return &cp, nil
}

func (m *MockCacheStore) ReplaceIndex(ctx context.Context, userID string, index *domain.CollectionIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return errCacheDown
	}
	cp := *index
	m.indexes[userID] = &cp
	return nil
}

// SetSchema seeds a cached schema row
func (m *MockCacheStore) SetSchema(entry *domain.CachedSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[schemaKey(entry.UserID, entry.CollectionID)] = entry
}

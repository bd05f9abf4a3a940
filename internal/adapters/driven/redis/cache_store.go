package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.SchemaCacheStore = (*CacheStore)(nil)
	_ driven.IndexCacheStore  = (*CacheStore)(nil)
)

const (
	// Key prefixes for Redis
	schemaPrefix = "clipper:schema:"
	indexPrefix  = "clipper:index:"

	// DefaultRetention keeps entries well past their freshness window so
	// stale rows can still be served while a refresh runs.
	DefaultRetention = 7 * 24 * time.Hour
)

// CacheStore keeps schema and collection index rows as JSON values.
// Freshness is decided by the schema service from UpdatedAt/RefreshedAt;
// the Redis TTL only bounds how long abandoned rows linger.
type CacheStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewCacheStore creates a new Redis-backed cache store
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client, retention: DefaultRetention}
}

func schemaKey(userID, collectionID string) string {
	return schemaPrefix + userID + ":" + collectionID
}

// GetSchema returns the cached schema row or nil on a miss
func (s *CacheStore) GetSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, error) {
	data, err := s.client.Get(ctx, schemaKey(userID, collectionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	var entry domain.CachedSchema
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return &entry, nil
}

// SaveSchema overwrites the row for (user, collection)
func (s *CacheStore) SaveSchema(ctx context.Context, entry *domain.CachedSchema) error {
	if entry == nil || entry.UserID == "" || entry.CollectionID == "" {
		return domain.ErrInvalidInput
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if err := s.client.Set(ctx, schemaKey(entry.UserID, entry.CollectionID), data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to save schema: %w", err)
	}
	return nil
}

// DeleteSchema drops the row; deleting a missing row is not an error
func (s *CacheStore) DeleteSchema(ctx context.Context, userID, collectionID string) error {
	if err := s.client.Del(ctx, schemaKey(userID, collectionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	return nil
}

// GetIndex returns the user's collection index or nil on a miss
func (s *CacheStore) GetIndex(ctx context.Context, userID string) (*domain.CollectionIndex, error) {
	data, err := s.client.Get(ctx, indexPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index: %w", err)
	}

	var index domain.CollectionIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

// ReplaceIndex swaps the whole index in one write, so ids missing from
// index disappear together with the old value.
func (s *CacheStore) ReplaceIndex(ctx context.Context, userID string, index *domain.CollectionIndex) error {
	if index == nil {
		return domain.ErrInvalidInput
	}

	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if err := s.client.Set(ctx, indexPrefix+userID, data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

package driven

import (
	"context"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// SchemaCacheStore persists simplified schemas scoped by (user, collection).
// Get methods return nil, nil on a miss.
type SchemaCacheStore interface {
	GetSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, error)
	SaveSchema(ctx context.Context, entry *domain.CachedSchema) error
	DeleteSchema(ctx context.Context, userID, collectionID string) error
}

// IndexCacheStore persists the per-user collection index.
// Get returns nil, nil on a miss.
type IndexCacheStore interface {
	GetIndex(ctx context.Context, userID string) (*domain.CollectionIndex, error)

	// ReplaceIndex upserts every item and deletes cached rows whose id is no longer present.
	ReplaceIndex(ctx context.Context, userID string, index *domain.CollectionIndex) error
}

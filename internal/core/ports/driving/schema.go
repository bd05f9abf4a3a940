package driving

import (
	"context"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// SchemaService serves cached collection schemas and the collection index
type SchemaService interface {
	// GetSchema returns the cached schema, refreshing when missing and in the background when stale.
	// A non-empty ifVersion equal to the cached version yields a result with NotModified set.
	GetSchema(ctx context.Context, userID, collectionID string, shape domain.SchemaShape, ifVersion string) (*domain.SchemaResult, error)

	// RefreshSchema fetches, normalizes and stores the schema now
	RefreshSchema(ctx context.Context, userID, collectionID string) (*domain.CachedSchema, error)

	// ListCollections returns the cached collection index, refreshing when missing and in the background when stale
	ListCollections(ctx context.Context, userID string) (*domain.CollectionIndex, error)

	// RefreshCollections rebuilds the index across every linked credential
	RefreshCollections(ctx context.Context, userID string) ([]domain.CollectionSummary, error)
}

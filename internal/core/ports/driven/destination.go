package driven

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// DestinationClient wraps the destination collection API.
// Every call carries the integration token of the credential it acts as.
//
// Read calls wrap domain.ErrNotAccessible when the token cannot see the object,
// write calls wrap domain.ErrDestinationWrite when the destination rejects them.
type DestinationClient interface {
	// GetCollection returns the raw collection object including its property schema.
	GetCollection(ctx context.Context, token, collectionID string) (json.RawMessage, error)

	// SearchCollections returns one page of collections visible to the token.
	// An empty cursor starts from the beginning.
	SearchCollections(ctx context.Context, token, cursor string) (*CollectionPage, error)

	// CreatePage creates a page in the collection with its first block batch.
	// At most domain.MaxBlocksPerRequest children are accepted.
	CreatePage(ctx context.Context, token string, req *CreatePageRequest) (*CreatedPage, error)

	// AppendBlocks appends children to an existing page.
	// At most domain.MaxBlocksPerRequest blocks are accepted.
	AppendBlocks(ctx context.Context, token, pageID string, blocks []domain.Block) error

	// UpdateOptions sets the full option list of a select-like property.
	// Existing option names must be included or the destination may drop them.
	UpdateOptions(ctx context.Context, token, collectionID, property string, propType domain.PropertyType, options []string) error

	// StartFileUpload requests an upload slot for a single file.
	StartFileUpload(ctx context.Context, token, filename, contentType string) (*domain.UploadSlot, error)

	// Upload sends the payload to the slot using the encoding the slot shape selects.
	Upload(ctx context.Context, token string, slot *domain.UploadSlot, payload *domain.UploadPayload) error
}

// CollectionPage is one page of a collection search
type CollectionPage struct {
	Items      []domain.CollectionSummary
	NextCursor string
	HasMore    bool
}

// CreatePageRequest holds the validated write for one page
type CreatePageRequest struct {
	CollectionID string
	Properties   domain.NormalizedProperties
	Children     []domain.Block
}

// CreatedPage identifies a page after creation
type CreatedPage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

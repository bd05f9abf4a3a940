package driven

import (
	"context"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// CredentialStore handles linked destination credentials.
// Tokens are stored encrypted and returned decrypted.
type CredentialStore interface {
	// Save creates or updates a credential
	Save(ctx context.Context, cred *domain.Credential) error

	// Get retrieves a credential by ID
	Get(ctx context.Context, id string) (*domain.Credential, error)

	// ListByUser returns the user's credentials ordered by creation time
	ListByUser(ctx context.Context, userID string) ([]*domain.Credential, error)

	// Delete removes a credential
	Delete(ctx context.Context, id string) error
}

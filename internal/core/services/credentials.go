package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// tryCredentials calls fn with each credential in order and returns the first success.
// When every credential fails the error wraps domain.ErrNotAccessible.
func tryCredentials[T any](ctx context.Context, creds []*domain.Credential, fn func(context.Context, *domain.Credential) (T, error)) (T, *domain.Credential, error) {
	var zero T
	if len(creds) == 0 {
		return zero, nil, domain.ErrNoCredentials
	}

	var lastErr error
	for _, cred := range creds {
		if err := ctx.Err(); err != nil {
			return zero, nil, err
		}
		v, err := fn(ctx, cred)
		if err == nil {
			return v, cred, nil
		}
		lastErr = err
	}

	if errors.Is(lastErr, domain.ErrNotAccessible) {
		return zero, nil, lastErr
	}
	return zero, nil, fmt.Errorf("%w: %v", domain.ErrNotAccessible, lastErr)
}

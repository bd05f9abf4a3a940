package driven

import "github.com/custodia-labs/clipper-core/internal/core/domain"

// AuthAdapter handles bearer token signing and verification.
// Token issuance to end users happens outside this service; GenerateToken exists for tooling and tests.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}

package ports

import (
	"context"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
)

// RefreshTokenRepository persists refresh credentials and performs the
// rotation bookkeeping. All methods are data access only; interpreting a
// row's state (revoked, expired, reused) is the service's job.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error)

	// FindByHash returns the row matching the digest regardless of its
	// revocation or expiry state, or the storage not-found error.
	FindByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Rotate atomically revokes the token identified by oldID and inserts
	// next for the same user. When oldID is already revoked (a concurrent
	// rotation won the race) it returns storage.ErrAlreadyRevoked and
	// applies no state change.
	Rotate(ctx context.Context, oldID string, next *domain.RefreshToken) (*domain.RefreshToken, error)

	// Revoke marks the token with the given digest revoked. Revoking an
	// unknown or already-revoked token is not an error.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForUser revokes every active token belonging to the user in
	// a single statement.
	RevokeAllForUser(ctx context.Context, userID string) error
}

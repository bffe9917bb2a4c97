package ports

import (
	"context"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
)

// UserRepository defines persistence operations over account identities.
// Implementations enforce no business policy; uniqueness violations surface as
// the storage conflict error with the offending column attached.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

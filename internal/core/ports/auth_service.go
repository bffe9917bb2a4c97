package ports

import (
	"context"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
)

// LoginResult carries everything a successful login produces. RefreshToken is
// the raw secret, surfaced exactly once; it is the transport's responsibility
// to move it in a channel that is never logged (an HttpOnly cookie).
type LoginResult struct {
	AccessToken  string
	ExpiresIn    int64 // access token lifetime in seconds
	RefreshToken string
	User         *domain.User
}

// RefreshResult is the outcome of one successful rotation: a fresh access
// token and the raw secret of the successor refresh token.
type RefreshResult struct {
	AccessToken  string
	ExpiresIn    int64
	RefreshToken string
}

// AuthService is the surface the transport adapters consume. Every method
// returns a plain result or one of the domain sentinel errors; HTTP status
// mapping happens outside the core.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Login(ctx context.Context, email, password, userAgent string) (*LoginResult, error)
	Refresh(ctx context.Context, rawToken string) (*RefreshResult, error)
	Logout(ctx context.Context, rawToken string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error

	GetUser(ctx context.Context, id string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

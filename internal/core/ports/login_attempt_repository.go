package ports

import (
	"context"
	"time"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
)

// LoginAttemptRepository appends to and queries the login audit trail.
// Rows are never updated or deleted by normal operation.
type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.LoginAttempt) error

	// CountRecentFailures counts failed attempts for the user inside the
	// trailing window ending now.
	CountRecentFailures(ctx context.Context, userID string, window time.Duration) (int, error)
}

// AttemptSink accepts login-attempt rows for persistence without being
// allowed to fail the caller. The production implementation buffers writes
// behind background workers.
type AttemptSink interface {
	Record(attempt domain.LoginAttempt)
}

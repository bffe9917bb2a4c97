package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
)

type LoginAttemptRepository struct {
	db *sqlx.DB
}

func NewLoginAttemptRepository(db *sqlx.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	const q = `
		INSERT INTO login_attempts (id, user_id, success, user_agent)
		VALUES ($1, $2, $3, $4)`

	id := attempt.ID
	if id == "" {
		id = uuid.NewString()
	}

	if _, err := r.db.ExecContext(ctx, q, id, attempt.UserID, attempt.Success, attempt.UserAgent); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *LoginAttemptRepository) CountRecentFailures(ctx context.Context, userID string, window time.Duration) (int, error) {
	const q = `
		SELECT COUNT(*) FROM login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempted_at > $2`

	var count int
	since := time.Now().Add(-window)
	if err := r.db.GetContext(ctx, &count, q, userID, since); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

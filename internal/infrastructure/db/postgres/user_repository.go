package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, is_active, email_verified, created_at, updated_at, last_login_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const q = `
		INSERT INTO users (id, email, username, password_hash, is_active, email_verified)
		VALUES ($1, $2, $3, $4, TRUE, FALSE)
		RETURNING ` + userColumns

	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}

	var created domain.User
	err := r.db.GetContext(ctx, &created, q, id, user.Email, user.Username, user.PasswordHash)
	if err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, q, email); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, q, id); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	const q = `UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

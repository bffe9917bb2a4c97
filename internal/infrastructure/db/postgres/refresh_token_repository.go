package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/storage"
)

type RefreshTokenRepository struct {
	db *sqlx.DB
}

func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const refreshColumns = `id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at`

func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	created, err := insertRefreshToken(ctx, r.db, token)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// FindByHash returns the row for the digest in whatever state it is in.
// Interpreting revocation and expiry belongs to the service: a revoked match
// is the reuse-detection signal, not a miss.
func (r *RefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	const q = `SELECT ` + refreshColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	var token domain.RefreshToken
	if err := r.db.GetContext(ctx, &token, q, tokenHash); err != nil {
		return nil, mapError(err)
	}
	return &token, nil
}

// Rotate revokes the token identified by oldID and inserts its successor as
// one atomic unit. The revoke is guarded by `revoked_at IS NULL`, so when two
// rotations race on the same token exactly one sees an affected row; the
// loser gets storage.ErrAlreadyRevoked and no partial state is ever visible.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID string, next *domain.RefreshToken) (*domain.RefreshToken, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const revoke = `
		UPDATE refresh_tokens
		SET revoked_at = now(), updated_at = now()
		WHERE id = $1 AND revoked_at IS NULL`

	res, err := tx.ExecContext(ctx, revoke, oldID)
	if err != nil {
		return nil, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, mapError(err)
	}
	if n == 0 {
		return nil, storage.ErrAlreadyRevoked
	}

	created, err := insertRefreshToken(ctx, tx, next)
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// Revoke marks the token matching the digest revoked. Idempotent: unknown or
// already-revoked digests affect zero rows and that is not an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	const q = `
		UPDATE refresh_tokens
		SET revoked_at = now(), updated_at = now()
		WHERE token_hash = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, q, tokenHash); err != nil {
		return mapError(err)
	}
	return nil
}

// RevokeAllForUser revokes the user's whole active token set in a single
// statement, so the operation is atomic with respect to concurrent lookups.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	const q = `
		UPDATE refresh_tokens
		SET revoked_at = now(), updated_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, q, userID); err != nil {
		return mapError(err)
	}
	return nil
}

func insertRefreshToken(ctx context.Context, q sqlx.QueryerContext, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	const insert = `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + refreshColumns

	id := token.ID
	if id == "" {
		id = uuid.NewString()
	}

	var created domain.RefreshToken
	row := q.QueryRowxContext(ctx, insert, id, token.UserID, token.TokenHash, token.ExpiresAt)
	if err := row.StructScan(&created); err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}
	return &created, nil
}

package domain

import "time"

// RefreshToken is the persisted side of a long-lived refresh credential.
// Only the SHA-256 digest of the secret is stored; the raw secret is shown to
// the caller exactly once at issuance.
//
// State machine: issued (RevokedAt nil) → consumed by exactly one successful
// rotation, or revoked by logout, password change, or detected reuse.
type RefreshToken struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Revoked reports whether the token has left the issued state.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired reports whether the token's lifetime has lapsed at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

package domain

import "time"

// LoginAttempt is one row of the append-only login audit trail. UserID is nil
// when the presented email did not resolve to an account.
type LoginAttempt struct {
	ID          string    `json:"id" db:"id"`
	UserID      *string   `json:"user_id,omitempty" db:"user_id"`
	Success     bool      `json:"success" db:"success"`
	AttemptedAt time.Time `json:"attempted_at" db:"attempted_at"`
	UserAgent   *string   `json:"user_agent,omitempty" db:"user_agent"`
}

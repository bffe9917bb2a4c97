// Package storage defines the error taxonomy shared by every repository
// implementation. The service layer matches on these sentinels and performs
// the one visible translation into domain outcomes; raw driver errors never
// cross this boundary.
package storage

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrConflict      = errors.New("storage: unique constraint violation")
	ErrPoolExhausted = errors.New("storage: connection pool exhausted")
	ErrUnavailable   = errors.New("storage: database unavailable")

	// ErrAlreadyRevoked is returned by refresh-token rotation when the token
	// to consume was revoked between lookup and rotation, meaning a
	// concurrent refresh won the race.
	ErrAlreadyRevoked = errors.New("storage: refresh token already revoked")
)

// ConflictOn reports whether err is a unique violation whose constraint name
// mentions column, e.g. ConflictOn(err, "email") for users_email_key.
func ConflictOn(err error, column string) bool {
	return errors.Is(err, ErrConflict) && strings.Contains(err.Error(), column)
}

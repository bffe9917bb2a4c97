package domain

import "errors"

// Sentinel errors returned by the auth core. The HTTP adapter maps these to
// status codes; none of them carries storage or crypto detail.
var (
	// ErrInvalidCredentials covers both unknown email and password mismatch so
	// the two cases are indistinguishable to a caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many failed login attempts")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrRefreshTokenReused marks a replayed (already-consumed) refresh
	// token. The transport renders it exactly like ErrInvalidRefreshToken;
	// the distinction exists for metrics and logs only.
	ErrRefreshTokenReused = errors.New("refresh token reuse detected")

	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrUserNotFound  = errors.New("user not found")

	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidUsername = errors.New("username is required")
	ErrWeakPassword    = errors.New("password must be at least 8 characters with uppercase, lowercase and digits")

	ErrUnauthorized = errors.New("unauthorized")
)

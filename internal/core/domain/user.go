package domain

import (
	"strings"
	"time"
)

// User models an account identity. Email and username are stored
// case-normalized and are globally unique. PasswordHash is nil for accounts
// reserved for future external-identity linking; such accounts cannot
// authenticate by password.
type User struct {
	ID            string     `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Username      string     `json:"username" db:"username"`
	PasswordHash  *string    `json:"-" db:"password_hash"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// NormalizeEmail lowercases and trims an email so lookups and the unique
// constraint agree on the canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername applies the same canonical form to usernames.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidEmail is a coarse structural check; full RFC validation is the
// transport validator's job.
func ValidEmail(email string) bool {
	at := strings.Index(email, "@")
	return len(email) > 5 && at > 0 && strings.Contains(email[at:], ".")
}

// StrongPassword requires at least 8 characters with an uppercase letter, a
// lowercase letter and a digit.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

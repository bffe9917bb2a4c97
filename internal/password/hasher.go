// Package password provides one-way password hashing and verification backed
// by bcrypt. The Hasher is pure and holds no mutable state, so a single value
// is safe for concurrent use across the whole process.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// decoyDigest is a bcrypt digest of a long random string that is not any
// user's password. Verifying against it burns the same CPU as a real
// verification, so login latency does not reveal whether an email mapped to
// an account.
const decoyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside
// bcrypt's supported range fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a bcrypt digest from the plaintext. It fails only on internal
// bcrypt failure, never on password content.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A mismatch is a normal false
// result, not an error; bcrypt performs the comparison in constant time.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// DummyVerify runs a full verification against a fixed decoy digest and
// discards the result. Called when a login's email resolves to no account.
func (h *Hasher) DummyVerify(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(decoyDigest), []byte(plain))
}

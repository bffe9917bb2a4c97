// Package token implements stateless signing and verification of short-lived
// access credentials as HS256 JWTs. The signing secret is loaded once at
// startup; construction fails when it is too short rather than running with a
// weak key.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum accepted signing secret length in bytes.
const MinSecretLen = 32

var (
	// ErrExpired means the token was well-formed and correctly signed but
	// its lifetime has lapsed; callers may retry via refresh.
	ErrExpired = errors.New("token expired")
	// ErrSignatureInvalid means the signature did not verify; the token
	// must be rejected outright.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrMalformed covers structural problems: not a JWT, wrong algorithm,
	// or claims that do not match the issuer/audience this process signs.
	ErrMalformed = errors.New("token malformed")

	errSecretTooShort = errors.New("token: signing secret must be at least 32 bytes")
)

// Claims is the transient view of a verified access token.
type Claims struct {
	Subject  string
	Issuer   string
	Audience string
	IssuedAt time.Time
	Expiry   time.Time
}

type Signer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewSigner builds a Signer. The secret length is enforced here so a
// misconfigured deployment aborts startup instead of issuing weak tokens.
func NewSigner(secret, issuer, audience string, ttl time.Duration) (*Signer, error) {
	if len(secret) < MinSecretLen {
		return nil, errSecretTooShort
	}
	if ttl <= 0 {
		return nil, errors.New("token: access token TTL must be positive")
	}
	return &Signer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// TTL returns the configured access token lifetime.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the subject using the configured lifetime.
func (s *Signer) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token with an explicit lifetime.
func (s *Signer) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates raw, returning exactly one of ErrExpired,
// ErrSignatureInvalid or ErrMalformed on failure. Expiry is checked before
// anything else that could mask it, so an expired-but-valid token is always
// reported as expired.
func (s *Signer) Verify(raw string) (*Claims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	out := &Claims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if len(claims.Audience) > 0 {
		out.Audience = claims.Audience[0]
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Time
	}
	return out, nil
}

package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testSecret, "auth-manager", "auth-manager-clients", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestNewSigner_RejectsShortSecret(t *testing.T) {
	if _, err := NewSigner("too-short", "iss", "aud", time.Hour); err == nil {
		t.Fatalf("expected error for short secret")
	}
	if _, err := NewSigner(testSecret, "iss", "aud", 0); err == nil {
		t.Fatalf("expected error for zero TTL")
	}
}

func TestSigner_RoundTrip(t *testing.T) {
	s := newTestSigner(t)

	raw, err := s.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := s.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user_42" {
		t.Fatalf("subject = %q, want user_42", claims.Subject)
	}
	if claims.Issuer != "auth-manager" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if claims.Audience != "auth-manager-clients" {
		t.Fatalf("audience = %q", claims.Audience)
	}
	ttl := claims.Expiry.Sub(claims.IssuedAt)
	if ttl != time.Hour {
		t.Fatalf("token lifetime = %v, want 1h", ttl)
	}
}

func TestSigner_Expired(t *testing.T) {
	s := newTestSigner(t)

	raw, err := s.IssueWithTTL("user_42", -time.Minute)
	if err != nil {
		t.Fatalf("IssueWithTTL: %v", err)
	}
	if _, err := s.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestSigner_WrongSecret(t *testing.T) {
	s := newTestSigner(t)
	other, err := NewSigner(strings.Repeat("x", 32), "auth-manager", "auth-manager-clients", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	raw, err := other.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Verify(raw); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestSigner_Malformed(t *testing.T) {
	s := newTestSigner(t)

	if _, err := s.Verify("not.a.jwt"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for garbage, got %v", err)
	}
	if _, err := s.Verify(""); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for empty input, got %v", err)
	}
}

func TestSigner_WrongIssuerOrAudience(t *testing.T) {
	s := newTestSigner(t)

	otherIssuer, err := NewSigner(testSecret, "someone-else", "auth-manager-clients", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	raw, err := otherIssuer.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for foreign issuer, got %v", err)
	}

	otherAudience, err := NewSigner(testSecret, "auth-manager", "someone-else", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	raw, err = otherAudience.Issue("user_42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for foreign audience, got %v", err)
	}
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
	"github.com/dofus-graal/auth-manager/internal/storage"
	"github.com/dofus-graal/auth-manager/internal/token"
)

// AuthService orchestrates registration, login, refresh-token rotation,
// logout and password changes. It owns every lifecycle transition of refresh
// tokens and login attempts; the stores only execute the data access it asks
// for. The service holds no mutable state and is safe to call concurrently.
type AuthService struct {
	users      ports.UserRepository
	tokens     ports.RefreshTokenRepository
	tracker    *LoginTracker
	hasher     ports.PasswordHasher
	signer     *token.Signer
	refreshTTL time.Duration
	logger     zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.RefreshTokenRepository,
	tracker *LoginTracker,
	hasher ports.PasswordHasher,
	signer *token.Signer,
	refreshTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		tracker:    tracker,
		hasher:     hasher,
		signer:     signer,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register creates an account. No tokens are issued; the caller logs in
// afterwards.
func (s *AuthService) Register(ctx context.Context, email, username, pass string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	username = domain.NormalizeUsername(username)

	if !domain.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if username == "" {
		return nil, domain.ErrInvalidUsername
	}
	if !domain.StrongPassword(pass) {
		return nil, domain.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
	})
	if err != nil {
		// The unique constraints are the source of truth; a pre-check
		// would race with concurrent registrations.
		switch {
		case storage.ConflictOn(err, "email"):
			return nil, domain.ErrEmailTaken
		case storage.ConflictOn(err, "username"):
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login authenticates by email and password. Unknown email, wrong password,
// inactive account and passwordless account all collapse into
// ErrInvalidCredentials so the caller cannot enumerate users; the unknown
// path still burns one hash verification to keep its timing in line with the
// known path.
func (s *AuthService) Login(ctx context.Context, email, pass, userAgent string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.DummyVerify(pass)
			s.tracker.Record(nil, false, userAgent)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Throttle pre-check, before any hashing. Hashing cost under a
	// credential-stuffing burst is wasted CPU, and skipping it keeps the
	// throttled path's timing flat.
	throttled, err := s.tracker.IsThrottled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if throttled {
		s.tracker.Record(&user.ID, false, userAgent)
		s.logger.Warn().Str("user_id", user.ID).Msg("login throttled")
		return nil, domain.ErrRateLimited
	}

	if !user.IsActive || user.PasswordHash == nil {
		s.hasher.DummyVerify(pass)
		s.tracker.Record(&user.ID, false, userAgent)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(pass, *user.PasswordHash) {
		s.tracker.Record(&user.ID, false, userAgent)
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := s.signer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	rawRefresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// The login already succeeded; a stale last_login_at is not worth
		// failing it over.
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	} else {
		now := time.Now().UTC()
		user.LastLoginAt = &now
	}

	s.tracker.Record(&user.ID, true, userAgent)
	s.logger.Info().Str("user_id", user.ID).Msg("login succeeded")

	return &ports.LoginResult{
		AccessToken:  accessToken,
		ExpiresIn:    int64(s.signer.TTL().Seconds()),
		RefreshToken: rawRefresh,
		User:         user,
	}, nil
}

// Refresh exchanges a live refresh token for a new access/refresh pair.
//
// Presenting a digest that matches an already-revoked row means the token was
// replayed: the single-use contract guarantees its legitimate holder can
// never present it twice, so someone else has it. The whole active chain for
// that user is revoked, forcing full re-authentication.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*ports.RefreshResult, error) {
	if rawToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	current, err := s.tokens.FindByHash(ctx, hashRefreshSecret(rawToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, err
	}

	if current.Revoked() {
		return nil, s.handleReuse(ctx, current)
	}
	if current.Expired(time.Now()) {
		return nil, domain.ErrRefreshTokenExpired
	}

	rawNext, next, err := newRefreshSecret(current.UserID, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokens.Rotate(ctx, current.ID, next); err != nil {
		if errors.Is(err, storage.ErrAlreadyRevoked) {
			// Lost a race against another rotation of the same token;
			// for the loser this is indistinguishable from replay.
			return nil, s.handleReuse(ctx, current)
		}
		return nil, err
	}

	accessToken, err := s.signer.Issue(current.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.logger.Debug().Str("user_id", current.UserID).Msg("refresh token rotated")

	return &ports.RefreshResult{
		AccessToken:  accessToken,
		ExpiresIn:    int64(s.signer.TTL().Seconds()),
		RefreshToken: rawNext,
	}, nil
}

// Logout revokes the refresh token matching rawToken. Idempotent: an unknown
// or already-revoked token is not an error.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, hashRefreshSecret(rawToken))
}

// ChangePassword replaces the user's password after verifying the old one and
// revokes every outstanding refresh token, invalidating all sessions.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPass, newPass string) error {
	if !domain.StrongPassword(newPass) {
		return domain.ErrWeakPassword
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	if user.PasswordHash == nil {
		return domain.ErrUnauthorized
	}
	if !s.hasher.Verify(oldPass, *user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(newPass)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		// The new password is already in place; the revocation must not be
		// lost silently.
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions after password change")
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("password changed, all sessions revoked")
	return nil
}

// GetUser returns the account identified by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account and, via the schema's cascade, its refresh
// tokens.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// handleReuse revokes the user's entire active refresh-token set and reports
// the presented token as invalid. Called when a revoked token is replayed or
// a rotation race is lost.
func (s *AuthService) handleReuse(ctx context.Context, reused *domain.RefreshToken) error {
	s.logger.Warn().
		Str("user_id", reused.UserID).
		Str("token_id", reused.ID).
		Msg("refresh token reuse detected, revoking all sessions")

	if err := s.tokens.RevokeAllForUser(ctx, reused.UserID); err != nil {
		// Fail closed: if the chain cannot be revoked the caller still
		// must not get a token, and the storage error surfaces.
		return err
	}
	return domain.ErrRefreshTokenReused
}

// issueRefreshToken creates and persists a fresh refresh token, returning the
// raw secret. The raw value exists only in this return path.
func (s *AuthService) issueRefreshToken(ctx context.Context, userID string) (string, error) {
	raw, tok, err := newRefreshSecret(userID, s.refreshTTL)
	if err != nil {
		return "", err
	}
	if _, err := s.tokens.Create(ctx, tok); err != nil {
		return "", err
	}
	return raw, nil
}

// newRefreshSecret draws a 32-byte random secret and builds the row holding
// its digest. The raw secret is never persisted.
func newRefreshSecret(userID string, ttl time.Duration) (string, *domain.RefreshToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate refresh secret: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	return raw, &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hashRefreshSecret(raw),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// hashRefreshSecret derives the deterministic lookup digest for a raw refresh
// secret. SHA-256 is sufficient here: the input is 256 bits of entropy, not a
// human password, so a slow hash buys nothing.
func hashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
)

// LoginTracker records login attempts and answers the throttle pre-check.
// Recording goes through the sink and can never fail the login flow; the
// throttle decision reads the audit trail directly.
type LoginTracker struct {
	sink        ports.AttemptSink
	attempts    ports.LoginAttemptRepository
	maxFailures int
	window      time.Duration
	logger      zerolog.Logger
}

func NewLoginTracker(sink ports.AttemptSink, attempts ports.LoginAttemptRepository, maxFailures int, window time.Duration, logger zerolog.Logger) *LoginTracker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginTracker{
		sink:        sink,
		attempts:    attempts,
		maxFailures: maxFailures,
		window:      window,
		logger:      logger,
	}
}

// Record appends one attempt to the audit trail. userID is nil when the
// email did not resolve to an account.
func (t *LoginTracker) Record(userID *string, success bool, userAgent string) {
	attempt := domain.LoginAttempt{
		UserID:      userID,
		Success:     success,
		AttemptedAt: time.Now().UTC(),
	}
	if userAgent != "" {
		attempt.UserAgent = &userAgent
	}
	t.sink.Record(attempt)
}

// IsThrottled reports whether the user has reached the failed-attempt
// threshold inside the trailing window. A storage failure counts as
// throttled: the check fails closed.
func (t *LoginTracker) IsThrottled(ctx context.Context, userID string) (bool, error) {
	failures, err := t.attempts.CountRecentFailures(ctx, userID, t.window)
	if err != nil {
		t.logger.Error().Err(err).Msg("throttle check failed")
		return true, err
	}
	return failures >= t.maxFailures, nil
}

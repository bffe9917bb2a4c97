// Package queue decouples login-attempt auditing from the login hot path.
// Appending an attempt must never fail or delay the auth result that already
// resolved in memory, so writes are handed to background workers and a storage
// failure is logged instead of propagated.
package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
)

// AttemptRecorder fans login-attempt rows out to a fixed set of workers over
// a buffered channel. When the buffer is full the attempt is dropped with a
// warning rather than blocking the caller.
type AttemptRecorder struct {
	ch      chan domain.LoginAttempt
	workers int
	repo    ports.LoginAttemptRepository
	log     zerolog.Logger
}

// NewAttemptRecorder creates an AttemptRecorder with numWorkers draining
// workers. If numWorkers <= 0, defaultWorkers is used.
func NewAttemptRecorder(numWorkers int, repo ports.LoginAttemptRepository, log zerolog.Logger) *AttemptRecorder {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &AttemptRecorder{
		ch:      make(chan domain.LoginAttempt, channelBuffer),
		workers: numWorkers,
		repo:    repo,
		log:     log,
	}
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled.
func (r *AttemptRecorder) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		go r.runWorker(ctx, i)
	}
}

// Record enqueues one attempt. Non-blocking: a full buffer drops the row.
func (r *AttemptRecorder) Record(attempt domain.LoginAttempt) {
	select {
	case r.ch <- attempt:
	default:
		r.log.Warn().Bool("success", attempt.Success).Msg("login attempt audit buffer full, dropping row")
	}
}

func (r *AttemptRecorder) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case attempt, ok := <-r.ch:
			if !ok {
				return
			}
			if err := r.repo.Create(ctx, &attempt); err != nil {
				r.log.Error().Err(err).
					Int("worker_id", id).
					Bool("success", attempt.Success).
					Msg("failed to persist login attempt")
			}
		}
	}
}

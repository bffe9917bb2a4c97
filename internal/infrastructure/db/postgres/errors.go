package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/dofus-graal/auth-manager/internal/storage"
)

// pq error classes, per the Postgres errcodes appendix.
const (
	pqUniqueViolation = "23505"
	pqClassConnection = "08"
	pqTooManyConns    = "53300"
)

// mapError converts a driver-level error into the storage taxonomy. This is
// the single place where pq/sql details are interpreted.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	// A request that exhausts its deadline waiting on the bounded pool
	// surfaces as context.DeadlineExceeded from database/sql.
	if errors.Is(err, context.DeadlineExceeded) {
		return storage.ErrPoolExhausted
	}
	if errors.Is(err, driver.ErrBadConn) {
		return storage.ErrUnavailable
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == pqUniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrConflict, pqErr.Constraint)
		case code == pqTooManyConns:
			return storage.ErrPoolExhausted
		case strings.HasPrefix(code, pqClassConnection):
			return storage.ErrUnavailable
		}
	}
	return fmt.Errorf("storage: %w", err)
}

// requireAffected turns a zero-row UPDATE or DELETE into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

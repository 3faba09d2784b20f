package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"

	"eventcheckin/internal/domain"
)

// Postgres SQLSTATE codes that signal a failed attempt rather than a bad request.
const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	classConnectionException = "08"
)

// wrapDBError turns a driver error into a domain.InfrastructureError so it can never
// be mistaken for a business rejection.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.InfrastructureError{Op: op, Err: err, Transient: isTransient(err)}
}

// isTransient reports whether a fresh attempt of the whole transaction may succeed.
// Lock and statement timeouts, serialization failures, deadlocks, dropped
// connections and an expired operation deadline qualify. A cancelled context
// means the caller went away and does not.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var perr *pq.Error
	if !errors.As(err, &perr) {
		return false
	}
	switch perr.Code {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	return perr.Code.Class() == classConnectionException
}

func isUniqueViolation(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == codeUniqueViolation
}

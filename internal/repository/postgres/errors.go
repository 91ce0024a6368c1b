package postgres

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	ierr "github.com/vidinfra/revalloc/internal/errors"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// dbError wraps a driver error in the internal database sentinel, preserving
// the original for logging
func dbError(err error, msg string) error {
	return ierr.WithError(err).
		WithMessage(msg).
		Mark(ierr.ErrDatabase)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/akumakusss123/DBT-Antivirus/internal/domain/errs"
)

// Classify maps driver and context errors onto the domain taxonomy.
// Already classified errors pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var classified *errs.Error
	if errors.As(err, &classified) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errs.E(errs.KindNotFound, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Timeout(op, err)
	case errors.Is(err, context.Canceled):
		return errs.Unavailable(op, err)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		return errs.E(sqliteKind(se.Code()), op, err)
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		return errs.E(postgresKind(pe), op, err)
	}

	// modernc reports an interrupted statement as a plain error
	if strings.Contains(err.Error(), "interrupted") {
		return errs.Timeout(op, err)
	}

	return errs.Unavailable(op, err)
}

func sqliteKind(code int) errs.Kind {
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_RANGE:
		return errs.KindConstraintViolation
	case sqlite3.SQLITE_INTERRUPT:
		return errs.KindTimeout
	default:
		// BUSY, LOCKED, IOERR, CANTOPEN, FULL, CORRUPT and friends
		return errs.KindStorageUnavailable
	}
}

func postgresKind(e *pq.Error) errs.Kind {
	switch e.Code.Class() {
	case "22", "23":
		// data exception, integrity constraint violation
		return errs.KindConstraintViolation
	}

	switch e.Code {
	case "57014": // query_canceled, raised by statement_timeout
		return errs.KindTimeout
	}

	return errs.KindStorageUnavailable
}

package apperror

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL server error numbers.
const (
	mysqlDupEntry       = 1062
	mysqlNoReferenced   = 1452
	mysqlNoSuchTable    = 1146
	mysqlBadFieldError  = 1054
	mysqlRowIsReference = 1451
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
	pgUndefinedColumn     = "42703"
)

// FromDB classifies an error returned by database/sql into the taxonomy.
// Unique violations and deletes blocked by referencing rows become
// conflicts. A foreign key violation on insert becomes ReferenceNotFound,
// since a row that resolved earlier may be gone by insert time. Connection
// failures become Unavailable. Errors that are already classified, and
// errors nothing here recognises, are returned unchanged.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return err
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return &AppError{Err: ErrConflict, Message: "already exists", Cause: err}
		case mysqlNoReferenced:
			return &AppError{Err: ErrReferenceNotFound, Message: "invalid reference", Cause: err}
		case mysqlRowIsReference:
			return &AppError{Err: ErrConflict, Message: "still referenced", Cause: err}
		case mysqlNoSuchTable, mysqlBadFieldError:
			return &AppError{Err: ErrSchemaMissing, Message: "schema mismatch", Cause: err}
		}
		return err
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case pgUniqueViolation:
			return &AppError{Err: ErrConflict, Message: "already exists", Cause: err}
		case pgForeignKeyViolation:
			// 23503 covers both directions; only the message tells a blocked
			// parent delete apart from a dangling child reference.
			if strings.HasPrefix(pe.Message, "update or delete on table") {
				return &AppError{Err: ErrConflict, Message: "still referenced", Cause: err}
			}
			return &AppError{Err: ErrReferenceNotFound, Message: "invalid reference", Cause: err}
		case pgUndefinedTable, pgUndefinedColumn:
			return &AppError{Err: ErrSchemaMissing, Message: "schema mismatch", Cause: err}
		}
		return err
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &AppError{Err: ErrConflict, Message: "already exists", Cause: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &AppError{Err: ErrReferenceNotFound, Message: "invalid reference", Cause: err}
		}
	}
	// The sqlite driver does not always surface extended result codes.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"):
		return &AppError{Err: ErrConflict, Message: "already exists", Cause: err}
	case strings.Contains(msg, "foreign key constraint failed"):
		return &AppError{Err: ErrReferenceNotFound, Message: "invalid reference", Cause: err}
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return &AppError{Err: ErrSchemaMissing, Message: "schema mismatch", Cause: err}
	}

	if IsConnectionError(err) {
		return Unavailable(err)
	}
	return err
}

// IsConnectionError reports whether err means the database could not be
// reached or the pooled connection broke. Such failures are safe to retry.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ce *pgconn.ConnectError
	return errors.As(err, &ce)
}

package apperror

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsWrapKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"missing fields", MissingFields("owner_id", "dog_id"), ErrValidation, "missing required fields: owner_id, dog_id"},
		{"validation", ValidationFailed("end_time", "end_time must be after start_time"), ErrValidation, "end_time must be after start_time"},
		{"reference", ReferenceNotFound("dog"), ErrReferenceNotFound, "invalid dog"},
		{"reference unnamed", ReferenceNotFound(""), ErrReferenceNotFound, "invalid reference"},
		{"schema table", SchemaMissing("bookings"), ErrSchemaMissing, "table bookings does not exist"},
		{"schema columns", SchemaMissing("bookings", "owner_user_id", "owner_id"), ErrSchemaMissing, "table bookings has none of the columns [owner_user_id, owner_id]"},
		{"conflict", Conflict("sitter profile already exists"), ErrConflict, "sitter profile already exists"},
		{"not found", NotFound("dog", "abc"), ErrNotFound, "dog not found with id abc"},
		{"forbidden", Forbidden("not your dog"), ErrForbidden, "not your dog"},
		{"unauthorized", Unauthorized("invalid credentials"), ErrUnauthorized, "invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestWrappedAppErrorStillMatches(t *testing.T) {
	err := fmt.Errorf("create booking: %w", ReferenceNotFound("owner"))
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	var ae *AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "owner", ae.Field)
}

func TestUnavailableKeepsCause(t *testing.T) {
	err := Unavailable(driver.ErrBadConn)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, driver.ErrBadConn)
}

func TestFromDB(t *testing.T) {
	tests := []struct {
		name string
		in   error
		kind error
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrConflict},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, ErrReferenceNotFound},
		{"mysql parent row still referenced", &mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"}, ErrConflict},
		{"mysql missing table", &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, ErrSchemaMissing},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, ErrConflict},
		{"postgres foreign key", &pgconn.PgError{Code: "23503", Message: `insert or update on table "bookings" violates foreign key constraint "bookings_dog_fk"`}, ErrReferenceNotFound},
		{"postgres parent still referenced", &pgconn.PgError{Code: "23503", Message: `update or delete on table "dogs" violates foreign key constraint "bookings_dog_fk" on table "bookings"`}, ErrConflict},
		{"sqlite unique text", errors.New("constraint failed: UNIQUE constraint failed: sitters.user_id (2067)"), ErrConflict},
		{"sqlite foreign key text", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), ErrReferenceNotFound},
		{"bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), ErrUnavailable},
		{"deadline", context.DeadlineExceeded, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, FromDB(tt.in), tt.kind)
		})
	}
}

func TestFromDBPassThrough(t *testing.T) {
	assert.NoError(t, FromDB(nil))

	plain := errors.New("syntax error")
	assert.Same(t, plain, FromDB(plain))

	classified := Conflict("already exists")
	assert.Equal(t, error(classified), FromDB(classified))
}

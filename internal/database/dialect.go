package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect names one of the supported SQL backends. The set is closed: the
// service runs against MySQL in production, PostgreSQL in some deployments
// and SQLite in development and tests.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the DB_DRIVER values used in configuration.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	default:
		return "mysql"
	}
}

// Quote wraps an identifier in the dialect's quote characters.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Rebind rewrites '?' placeholders into the dialect's positional form.
// Queries are always written with '?' so they stay readable.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SupportsReturning reports whether generated keys must be read back with
// INSERT ... RETURNING instead of sql.Result.LastInsertId.
func (d Dialect) SupportsReturning() bool { return d == Postgres }

// KeyMatch renders a comparison of a key column against a placeholder.
// Postgres refuses to compare an integer column with a text argument, so the
// column is cast; MySQL and SQLite compare loosely on their own.
func (d Dialect) KeyMatch(col string) string {
	if d == Postgres {
		return "CAST(" + col + " AS TEXT) = ?"
	}
	return col + " = ?"
}

// TimeArg converts a timestamp into the argument passed to the driver.
// SQLite has no native timestamp type, so values are stored as RFC 3339 text
// in UTC, which also sorts correctly as a string.
func (d Dialect) TimeArg(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(time.RFC3339)
	}
	return t.UTC()
}

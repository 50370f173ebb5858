// Package testutil opens in-memory SQLite databases seeded with the schema
// generations the service has to support. It is imported by tests only.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/iliyamo/pet-buddy/internal/database"
)

var dbSeq atomic.Int64

// OpenSQLite returns a fresh in-memory database with foreign keys enforced,
// with the given DDL applied. Each call gets its own named shared-cache
// database, so several pooled connections see the same data.
func OpenSQLite(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("file:petbuddy_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open(database.Options{
		Dialect:      database.SQLite,
		Name:         name,
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("apply ddl: %v\n%s", err, stmt)
		}
	}
	return db
}

// Exec runs a statement and fails the test on error.
func Exec(t *testing.T, db *sql.DB, query string, args ...any) sql.Result {
	t.Helper()
	res, err := db.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
	return res
}

// Count returns SELECT COUNT(*) for table.
func Count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

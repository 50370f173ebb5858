package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/iliyamo/pet-buddy/internal/testutil"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// legacyDB seeds owner 1, sitter 2 and dog 1 in the integer-keyed schema.
func legacyDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testutil.OpenSQLite(t, testutil.LegacySchema...)
	testutil.Exec(t, db, `INSERT INTO users (user_id, email, password_hash, phone_number, full_name) VALUES
		(1, 'owner@example.com', 'x', '010-1', 'Olivia Owner'),
		(2, 'sitter@example.com', 'x', '010-2', 'Sam Sitter')`)
	testutil.Exec(t, db, `INSERT INTO dogs (dog_id, user_id, dog_name, breed, profile_image_url)
		VALUES (1, 1, 'Bori', 'Jindo', 'https://img.example.com/bori.png')`)
	return db
}

// modernDB seeds owner 1, sitter 2 and dog "dog-1" in the uuid-keyed schema.
func modernDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testutil.OpenSQLite(t, testutil.ModernSchema...)
	testutil.Exec(t, db, `INSERT INTO users (id, email, password, phone, name) VALUES
		(1, 'owner@example.com', 'x', '010-1', 'Olivia Owner'),
		(2, 'sitter@example.com', 'x', '010-2', NULL)`)
	testutil.Exec(t, db, `INSERT INTO dogs (id, owner_id, name, breed, photo_url)
		VALUES ('dog-1', 1, 'Coco', 'Poodle', 'https://img.example.com/coco.png')`)
	return db
}

// mixedDB seeds owner 5, sitter 6 and dog "dog-5": users only has id while
// bookings still carries owner_user_id.
func mixedDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testutil.OpenSQLite(t, testutil.MixedSchema...)
	testutil.Exec(t, db, `INSERT INTO users (id, email, password_hash, full_name) VALUES
		(5, 'owner@example.com', 'x', 'Olivia Owner'),
		(6, 'sitter@example.com', 'x', 'Sam Sitter')`)
	testutil.Exec(t, db, `INSERT INTO dogs (id, owner_id, name) VALUES ('dog-5', 5, 'Max')`)
	return db
}

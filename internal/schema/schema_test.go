package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/testutil"
)

func TestColumnsSQLite(t *testing.T) {
	db := testutil.OpenSQLite(t, testutil.LegacySchema...)
	in := NewIntrospector(database.SQLite)

	cols, err := in.Columns(context.Background(), db, "bookings")
	require.NoError(t, err)

	assert.True(t, cols.Has("owner_user_id"))
	assert.True(t, cols.Has("booking_status"))
	assert.False(t, cols.Has("owner_id"))
	assert.True(t, cols.Generated("booking_id"), "INTEGER PRIMARY KEY is a rowid alias")
	assert.False(t, cols.Generated("owner_user_id"))
}

func TestColumnsTextPrimaryKeyIsNotGenerated(t *testing.T) {
	db := testutil.OpenSQLite(t, testutil.ModernSchema...)
	in := NewIntrospector(database.SQLite)

	cols, err := in.Columns(context.Background(), db, "bookings")
	require.NoError(t, err)
	assert.True(t, cols.Has("id"))
	assert.False(t, cols.Generated("id"))
	assert.True(t, cols.Has("dogId"))
}

func TestColumnsRecordNumericKeys(t *testing.T) {
	db := testutil.OpenSQLite(t, testutil.ModernSchema...)
	in := NewIntrospector(database.SQLite)

	cols, err := in.Columns(context.Background(), db, "bookings")
	require.NoError(t, err)
	assert.True(t, cols.Numeric("owner_id"))
	assert.False(t, cols.Numeric("id"))
	assert.False(t, cols.Numeric("dogId"))
}

func TestNumericType(t *testing.T) {
	for typ, want := range map[string]bool{
		"int":               true,
		"bigint":            true,
		"INTEGER":           true,
		"int(11) unsigned":  true,
		"decimal":           true,
		"numeric":           true,
		"double precision":  true,
		"varchar":           false,
		"char":              false,
		"TEXT":              false,
		"uuid":              false,
		"character varying": false,
		"":                  false,
	} {
		assert.Equal(t, want, numericType(typ), typ)
	}
}

func TestColumnsMissingTable(t *testing.T) {
	db := testutil.OpenSQLite(t)
	in := NewIntrospector(database.SQLite)

	_, err := in.Columns(context.Background(), db, "bookings")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrSchemaMissing)
}

func TestSnapshotLoadsEachTableOnce(t *testing.T) {
	db := testutil.OpenSQLite(t, testutil.MixedSchema...)
	in := NewIntrospector(database.SQLite)

	snap, err := in.Snapshot(context.Background(), db, "bookings", "users", "dogs", "users")
	require.NoError(t, err)
	assert.Len(t, snap, 3)
	assert.True(t, snap.Of("users").Has("id"))
	assert.False(t, snap.Of("users").Has("user_id"))
	assert.Nil(t, snap.Of("sitters"))
}

func TestResolveVariants(t *testing.T) {
	legacy := ColumnSet{"owner_user_id": {}, "sitter_user_id": {}, "dog_id": {}, "booking_status": {}, "status": {}}
	modern := ColumnSet{"owner_id": {}, "sitter_id": {}, "dogId": {}, "status": {}}

	tests := []struct {
		name string
		set  ColumnSet
		l    Logical
		want string
	}{
		{"legacy owner", legacy, BookingOwner, "owner_user_id"},
		{"modern owner", modern, BookingOwner, "owner_id"},
		{"legacy dog", legacy, BookingDog, "dog_id"},
		{"modern dog", modern, BookingDog, "dogId"},
		{"status prefers booking_status", legacy, BookingStatus, "booking_status"},
		{"status fallback", modern, BookingStatus, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.set.Resolve(tt.l)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ColumnSet{"id": {}}.Require("bookings", BookingOwner)
	assert.ErrorIs(t, err, apperror.ErrSchemaMissing)
	assert.Contains(t, err.Error(), "owner_user_id, owner_id")
}

func TestInsertPlanFiltersByLiveColumns(t *testing.T) {
	live := ColumnSet{"id": {}, "owner_id": {}, "start_time": {}, "status": {}}

	plan := NewInsert("bookings", live).
		Set("id", "b-1").
		Set("owner_id", 7).
		Set("start_date", "2025-03-01"). // absent, skipped
		Require("start_time", "2025-03-01T09:00:00Z").
		SetLogical(BookingStatus, "confirmed")

	assert.Equal(t, []string{"id", "owner_id", "start_time", "status"}, plan.Columns())

	q, args, err := plan.Render(database.MySQL)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `bookings` (`id`, `owner_id`, `start_time`, `status`) VALUES (?, ?, ?, ?)", q)
	assert.Equal(t, []any{"b-1", 7, "2025-03-01T09:00:00Z", "confirmed"}, args)
}

func TestInsertPlanPostgresReturning(t *testing.T) {
	live := ColumnSet{"booking_id": {Name: "booking_id", Generated: true}, "owner_user_id": {}}

	plan := NewInsert("bookings", live).Set("owner_user_id", 1).Returning("booking_id")
	q, _, err := plan.Render(database.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "bookings" ("owner_user_id") VALUES ($1) RETURNING "booking_id"`, q)
	assert.True(t, plan.ReadsBack(database.Postgres))
	assert.False(t, plan.ReadsBack(database.MySQL))
}

func TestInsertPlanRequireMissing(t *testing.T) {
	plan := NewInsert("bookings", ColumnSet{"id": {}}).Set("id", "x").Require("start_time", "t")
	_, _, err := plan.Render(database.SQLite)
	assert.ErrorIs(t, err, apperror.ErrSchemaMissing)
	assert.ErrorIs(t, plan.Err(), apperror.ErrSchemaMissing)
}

func TestInsertPlanEmpty(t *testing.T) {
	_, _, err := NewInsert("bookings", ColumnSet{}).Set("id", "x").Render(database.SQLite)
	assert.ErrorIs(t, err, apperror.ErrSchemaMissing)
}

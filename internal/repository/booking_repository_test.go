package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/testutil"
)

func TestCreateBookingLegacySchema(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	id, err := repo.Create(ctx, NewBooking{
		OwnerRef:  "1",
		SitterRef: "2",
		DogRef:    "1",
		StartTime: at("2025-05-01T09:00:00Z"),
		EndTime:   at("2025-05-01T18:00:00Z"),
		Location:  "Seoul",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	var owner, sitter, dog int64
	var startDate, endDate, status, location string
	err = db.QueryRow(`SELECT owner_user_id, sitter_user_id, dog_id, start_date, end_date, booking_status, location
		FROM bookings WHERE booking_id = ?`, id).Scan(&owner, &sitter, &dog, &startDate, &endDate, &status, &location)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owner)
	assert.Equal(t, int64(2), sitter)
	assert.Equal(t, int64(1), dog)
	assert.Equal(t, "2025-05-01", startDate)
	assert.Equal(t, "2025-05-01", endDate)
	assert.Equal(t, StatusConfirmed, status)
	assert.Equal(t, "Seoul", location)
}

func TestCreateBookingModernSchema(t *testing.T) {
	ctx := context.Background()
	db := modernDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	id, err := repo.Create(ctx, NewBooking{
		OwnerRef:  "1",
		SitterRef: "2",
		DogRef:    "dog-1",
		StartTime: at("2025-05-01T09:00:00Z"),
		EndTime:   at("2025-05-02T09:00:00Z"),
	})
	require.NoError(t, err)
	assert.Len(t, id, 36, "bookings.id is a synthetic uuid")

	var owner, sitter int64
	var dog, status, start string
	err = db.QueryRow(`SELECT owner_id, sitter_id, dogId, status, start_time FROM bookings WHERE id = ?`, id).
		Scan(&owner, &sitter, &dog, &status, &start)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owner)
	assert.Equal(t, int64(2), sitter)
	assert.Equal(t, "dog-1", dog)
	assert.Equal(t, StatusConfirmed, status)
	assert.Equal(t, "2025-05-01T09:00:00Z", start)
}

func TestCreateBookingMixedSchemaStoresPresentKey(t *testing.T) {
	ctx := context.Background()
	db := mixedDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	id, err := repo.Create(ctx, NewBooking{
		OwnerRef:  "5",
		SitterRef: "6",
		DogRef:    "dog-5",
		StartTime: at("2025-05-01T09:00:00Z"),
		EndTime:   at("2025-05-01T10:00:00Z"),
	})
	require.NoError(t, err)

	var owner, sitter int64
	var dog string
	err = db.QueryRow(`SELECT owner_user_id, sitter_user_id, dog_id FROM bookings WHERE id = ?`, id).
		Scan(&owner, &sitter, &dog)
	require.NoError(t, err)
	assert.Equal(t, int64(5), owner)
	assert.Equal(t, int64(6), sitter)
	assert.Equal(t, "dog-5", dog)
}

func TestCreateBookingUnresolvedReferenceWritesNothing(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		in    NewBooking
		field string
	}{
		{
			name:  "unknown dog",
			in:    NewBooking{OwnerRef: "1", SitterRef: "2", DogRef: "nonexistent-uuid"},
			field: "dog",
		},
		{
			name:  "unknown sitter",
			in:    NewBooking{OwnerRef: "1", SitterRef: "no-such-user", DogRef: "dog-1"},
			field: "sitter",
		},
		{
			name:  "empty owner",
			in:    NewBooking{OwnerRef: " ", SitterRef: "2", DogRef: "dog-1"},
			field: "owner",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := modernDB(t)
			repo := NewBookingRepo(db, database.SQLite)
			tt.in.StartTime = at("2025-05-01T09:00:00Z")
			tt.in.EndTime = at("2025-05-01T10:00:00Z")

			_, err := repo.Create(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrReferenceNotFound)
			var ae *apperror.AppError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tt.field, ae.Field)
			assert.Equal(t, "invalid "+tt.field, ae.Message)
			assert.Equal(t, 0, testutil.Count(t, db, "bookings"))
		})
	}
}

func TestCreateBookingForeignKeyFailureIsReferenceNotFound(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	// 999 takes the numeric fast path and only fails at the foreign key.
	_, err := repo.Create(ctx, NewBooking{
		OwnerRef:  "999",
		SitterRef: "2",
		DogRef:    "1",
		StartTime: at("2025-05-01T09:00:00Z"),
		EndTime:   at("2025-05-01T10:00:00Z"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrReferenceNotFound)
	assert.Equal(t, 0, testutil.Count(t, db, "bookings"))
}

func TestCreateBookingMissingTable(t *testing.T) {
	db := testutil.OpenSQLite(t, testutil.DualKeySchema...)
	repo := NewBookingRepo(db, database.SQLite)

	_, err := repo.Create(context.Background(), NewBooking{OwnerRef: "1", SitterRef: "2", DogRef: "1"})
	assert.ErrorIs(t, err, apperror.ErrSchemaMissing)
}

func TestCreateBookingDateMirrorUsesCallerOffset(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	id, err := repo.Create(ctx, NewBooking{
		OwnerRef:  "1",
		SitterRef: "2",
		DogRef:    "1",
		StartTime: at("2025-03-01T23:30:00+09:00"),
		EndTime:   at("2025-03-02T08:00:00+09:00"),
	})
	require.NoError(t, err)

	var startDate, endDate, start string
	err = db.QueryRow(`SELECT start_date, end_date, start_time FROM bookings WHERE booking_id = ?`, id).
		Scan(&startDate, &endDate, &start)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", startDate)
	assert.Equal(t, "2025-03-02", endDate)
	assert.Equal(t, "2025-03-01T14:30:00Z", start)
}

func TestListBookingsOrdering(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	starts := []string{"2025-06-10T09:00:00Z", "2025-06-01T09:00:00Z", "2025-06-05T09:00:00Z"}
	for _, s := range starts {
		_, err := repo.Create(ctx, NewBooking{
			OwnerRef: "1", SitterRef: "2", DogRef: "1",
			StartTime: at(s), EndTime: at(s).Add(time.Hour),
		})
		require.NoError(t, err)
	}

	owner, err := repo.ListForOwner(ctx, "1")
	require.NoError(t, err)
	require.Len(t, owner, 3)
	assert.WithinDuration(t, at("2025-06-01T09:00:00Z"), owner[0].StartTime, 0)
	assert.WithinDuration(t, at("2025-06-10T09:00:00Z"), owner[2].StartTime, 0)
	assert.Equal(t, "Bori", owner[0].DogName)
	assert.Equal(t, "https://img.example.com/bori.png", owner[0].DogPhotoURL)
	assert.Equal(t, "sitter@example.com", owner[0].SitterEmail)
	assert.Empty(t, owner[0].OwnerEmail)
	assert.Equal(t, StatusConfirmed, owner[0].Status)

	sitter, err := repo.ListForSitter(ctx, "2")
	require.NoError(t, err)
	require.Len(t, sitter, 3)
	assert.WithinDuration(t, at("2025-06-10T09:00:00Z"), sitter[0].StartTime, 0)
	assert.WithinDuration(t, at("2025-06-01T09:00:00Z"), sitter[2].StartTime, 0)
	assert.Equal(t, "owner@example.com", sitter[0].OwnerEmail)
}

func TestListBookingsModernSchema(t *testing.T) {
	ctx := context.Background()
	db := modernDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	_, err := repo.Create(ctx, NewBooking{
		OwnerRef: "1", SitterRef: "2", DogRef: "dog-1",
		StartTime: at("2025-06-01T09:00:00Z"), EndTime: at("2025-06-01T10:00:00Z"),
	})
	require.NoError(t, err)

	list, err := repo.ListForOwner(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dog-1", list[0].DogID)
	assert.Equal(t, "Coco", list[0].DogName)
	assert.Equal(t, "2", list[0].SitterID)
}

func TestListBookingsUnknownUserIsEmpty(t *testing.T) {
	db := modernDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	list, err := repo.ListForOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	id, err := repo.Create(ctx, NewBooking{
		OwnerRef: "1", SitterRef: "2", DogRef: "1",
		StartTime: at("2025-06-01T09:00:00Z"), EndTime: at("2025-06-01T10:00:00Z"),
	})
	require.NoError(t, err)

	changed, err := repo.UpdateStatus(ctx, id, StatusCompleted)
	require.NoError(t, err)
	assert.True(t, changed)

	var status string
	require.NoError(t, db.QueryRow(`SELECT booking_status FROM bookings WHERE booking_id = ?`, id).Scan(&status))
	assert.Equal(t, StatusCompleted, status)

	changed, err = repo.UpdateStatus(ctx, "424242", StatusCancelled)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = repo.UpdateStatus(ctx, id, "archived")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateBookingStatusNonNumericIDOnIntegerKey(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewBookingRepo(db, database.SQLite)

	_, err := repo.Create(ctx, NewBooking{
		OwnerRef: "1", SitterRef: "2", DogRef: "1",
		StartTime: at("2025-05-01T09:00:00Z"), EndTime: at("2025-05-01T18:00:00Z"),
	})
	require.NoError(t, err)

	changed, err := repo.UpdateStatus(ctx, "1abc", StatusCancelled)
	require.NoError(t, err)
	assert.False(t, changed)

	var status string
	require.NoError(t, db.QueryRow(`SELECT booking_status FROM bookings WHERE booking_id = 1`).Scan(&status))
	assert.Equal(t, StatusConfirmed, status)
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/testutil"
)

func TestDogCreateKeys(t *testing.T) {
	ctx := context.Background()

	legacy := NewDogRepo(legacyDB(t), database.SQLite)
	id, err := legacy.Create(ctx, NewDog{OwnerRef: "1", Name: "Dubu", Notes: "afraid of bikes"})
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	modernStore := modernDB(t)
	modern := NewDogRepo(modernStore, database.SQLite)
	id, err = modern.Create(ctx, NewDog{OwnerRef: "1", Name: "Dubu", PhotoURL: "https://img.example.com/dubu.png"})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	var photo string
	require.NoError(t, modernStore.QueryRow(`SELECT photo_url FROM dogs WHERE id = ?`, id).Scan(&photo))
	assert.Equal(t, "https://img.example.com/dubu.png", photo)

	_, err = modern.Create(ctx, NewDog{OwnerRef: "77", Name: "Ghost"})
	assert.ErrorIs(t, err, apperror.ErrReferenceNotFound)
}

func TestDogListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := modernDB(t)
	testutil.Exec(t, db, `INSERT INTO dogs (id, owner_id, name, created_at) VALUES
		('dog-old', 1, 'Old', '2020-01-01 00:00:00'),
		('dog-new', 1, 'New', '2030-01-01 00:00:00'),
		('dog-other', 2, 'Other', '2030-01-01 00:00:00')`)
	repo := NewDogRepo(db, database.SQLite)

	list, err := repo.ListByOwner(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "dog-new", list[0].DogID)
	assert.Equal(t, "dog-old", list[2].DogID)

	none, err := repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDogDeleteChecksOwner(t *testing.T) {
	ctx := context.Background()
	db := modernDB(t)
	repo := NewDogRepo(db, database.SQLite)

	err := repo.Delete(ctx, "dog-1", "2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, testutil.Count(t, db, "dogs"))

	require.NoError(t, repo.Delete(ctx, "dog-1", "1"))
	assert.Equal(t, 0, testutil.Count(t, db, "dogs"))
}

func TestDogDeleteNonNumericIDOnIntegerKey(t *testing.T) {
	db := legacyDB(t)
	repo := NewDogRepo(db, database.SQLite)

	err := repo.Delete(context.Background(), "1f2a9c1e", "1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, testutil.Count(t, db, "dogs"))
}

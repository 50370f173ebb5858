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

func TestSitterProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	db := legacyDB(t)
	repo := NewSitterRepo(db, database.SQLite)

	_, err := repo.CreateProfile(ctx, "2", "Ten years with shiba inus")
	require.NoError(t, err)

	_, err = repo.CreateProfile(ctx, "2", "again")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	s, err := repo.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "2", s.UserID)
	assert.Equal(t, "sitter@example.com", s.Email)
	assert.Equal(t, "010-2", s.Phone)

	ok, err := repo.IsSitter(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.CreateProfile(ctx, "no-such-user", "")
	assert.ErrorIs(t, err, apperror.ErrReferenceNotFound)
}

func TestSitterListOrderedByEarnings(t *testing.T) {
	ctx := context.Background()
	db := modernDB(t)
	testutil.Exec(t, db, `INSERT INTO sitters (user_id, total_earnings) VALUES (1, 100), (2, 900)`)
	repo := NewSitterRepo(db, database.SQLite)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].UserID)
	assert.Equal(t, int64(900), list[0].TotalEarnings)
	assert.Equal(t, "Olivia Owner", list[1].FullName)
}

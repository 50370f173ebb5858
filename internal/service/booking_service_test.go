package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/queue"
	"github.com/iliyamo/pet-buddy/internal/repository"
	"github.com/iliyamo/pet-buddy/internal/testutil"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []queue.BookingCreatedEvent
	err     error
	release chan struct{}
}

func (p *recordingPublisher) PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) published() []queue.BookingCreatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingCreatedEvent(nil), p.events...)
}

// closeStub wraps the real posting repository and overrides the close step.
type closeStub struct {
	*repository.PostingRepo
	closed bool
	err    error
	calls  int
}

func (s *closeStub) CloseWith(context.Context, database.Querier, repository.PostingKind, string) (bool, error) {
	s.calls++
	return s.closed, s.err
}

func seededDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testutil.OpenSQLite(t, testutil.LegacySchema...)
	testutil.Exec(t, db, `INSERT INTO users (user_id, email, password_hash) VALUES
		(1, 'owner@example.com', 'x'), (2, 'sitter@example.com', 'x')`)
	testutil.Exec(t, db, `INSERT INTO dogs (dog_id, user_id, dog_name) VALUES (1, 1, 'Bori')`)
	testutil.Exec(t, db, `INSERT INTO sitter_postings (post_id, sitter_id, title, location, status)
		VALUES (42, 2, 'Weekend sitting', 'Hapjeong', 'active')`)
	return db
}

func bookingInput(source string) CreateBookingInput {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	return CreateBookingInput{
		OwnerRef:  "1",
		SitterRef: "2",
		DogRef:    "1",
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
		SourceID:  source,
	}
}

func postingStatus(t *testing.T, db *sql.DB, id int) string {
	t.Helper()
	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM sitter_postings WHERE post_id = ?`, id).Scan(&status))
	return status
}

func TestCreateBookingClosesSourcePosting(t *testing.T) {
	ctx := context.Background()
	db := seededDB(t)
	pub := &recordingPublisher{}
	svc := NewBookingService(db,
		repository.NewBookingRepo(db, database.SQLite),
		repository.NewPostingRepo(db, database.SQLite),
		pub, false, zerolog.Nop())

	res, err := svc.Create(ctx, bookingInput("42"))
	require.NoError(t, err)
	assert.Equal(t, "1", res.BookingID)
	assert.True(t, res.PostingClosed)

	assert.Equal(t, 1, testutil.Count(t, db, "bookings"))
	assert.Equal(t, repository.PostingClosed, postingStatus(t, db, 42))

	var location string
	require.NoError(t, db.QueryRow(`SELECT location FROM bookings WHERE booking_id = 1`).Scan(&location))
	assert.Equal(t, "Hapjeong", location, "location is taken from the source posting")

	svc.Wait()
	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].BookingID)
	assert.Equal(t, "sitter", events[0].SourceKind)
	assert.Equal(t, "Hapjeong", events[0].Location)
	assert.True(t, events[0].PostingClosed)
}

func TestCreateBookingDoesNotWaitForBroker(t *testing.T) {
	db := seededDB(t)
	pub := &recordingPublisher{release: make(chan struct{})}
	svc := NewBookingService(db,
		repository.NewBookingRepo(db, database.SQLite),
		repository.NewPostingRepo(db, database.SQLite),
		pub, false, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Create(context.Background(), bookingInput(""))
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("booking response waited on the broker")
	}
	assert.Empty(t, pub.published())

	close(pub.release)
	svc.Wait()
	assert.Len(t, pub.published(), 1)
}

func TestCreateBookingWithoutSource(t *testing.T) {
	db := seededDB(t)
	stub := &closeStub{PostingRepo: repository.NewPostingRepo(db, database.SQLite)}
	svc := NewBookingService(db, repository.NewBookingRepo(db, database.SQLite), stub, nil, false, zerolog.Nop())

	res, err := svc.Create(context.Background(), bookingInput(""))
	require.NoError(t, err)
	assert.False(t, res.PostingClosed)
	assert.Zero(t, stub.calls)
}

func TestCreateBookingCloseFailureKeepsBooking(t *testing.T) {
	db := seededDB(t)
	stub := &closeStub{PostingRepo: repository.NewPostingRepo(db, database.SQLite), err: errors.New("lock wait timeout")}
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewBookingService(db, repository.NewBookingRepo(db, database.SQLite), stub, pub, false, zerolog.Nop())

	res, err := svc.Create(context.Background(), bookingInput("42"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.BookingID)
	assert.False(t, res.PostingClosed)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 1, testutil.Count(t, db, "bookings"))
	assert.Equal(t, repository.PostingActive, postingStatus(t, db, 42))
	svc.Wait()
	assert.Len(t, pub.published(), 1, "publish failure does not fail the request")
}

func TestCreateBookingUnresolvedReferenceSkipsClose(t *testing.T) {
	db := seededDB(t)
	stub := &closeStub{PostingRepo: repository.NewPostingRepo(db, database.SQLite), closed: true}
	pub := &recordingPublisher{}
	svc := NewBookingService(db, repository.NewBookingRepo(db, database.SQLite), stub, pub, false, zerolog.Nop())

	in := bookingInput("42")
	in.DogRef = "nonexistent-uuid"
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrReferenceNotFound)
	assert.Zero(t, stub.calls)
	svc.Wait()
	assert.Empty(t, pub.published())
	assert.Equal(t, 0, testutil.Count(t, db, "bookings"))
}

func TestCreateBookingStrictMode(t *testing.T) {
	t.Run("closes in the same transaction", func(t *testing.T) {
		db := seededDB(t)
		svc := NewBookingService(db,
			repository.NewBookingRepo(db, database.SQLite),
			repository.NewPostingRepo(db, database.SQLite),
			nil, true, zerolog.Nop())

		res, err := svc.Create(context.Background(), bookingInput("42"))
		require.NoError(t, err)
		assert.True(t, res.PostingClosed)
		assert.Equal(t, 1, testutil.Count(t, db, "bookings"))
		assert.Equal(t, repository.PostingClosed, postingStatus(t, db, 42))
	})

	t.Run("closed posting rolls the booking back", func(t *testing.T) {
		db := seededDB(t)
		testutil.Exec(t, db, `UPDATE sitter_postings SET status = 'closed' WHERE post_id = 42`)
		svc := NewBookingService(db,
			repository.NewBookingRepo(db, database.SQLite),
			repository.NewPostingRepo(db, database.SQLite),
			nil, true, zerolog.Nop())

		_, err := svc.Create(context.Background(), bookingInput("42"))
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Equal(t, 0, testutil.Count(t, db, "bookings"))
	})

	t.Run("close error rolls the booking back", func(t *testing.T) {
		db := seededDB(t)
		stub := &closeStub{PostingRepo: repository.NewPostingRepo(db, database.SQLite), err: errors.New("boom")}
		svc := NewBookingService(db, repository.NewBookingRepo(db, database.SQLite), stub, nil, true, zerolog.Nop())

		_, err := svc.Create(context.Background(), bookingInput("42"))
		require.Error(t, err)
		assert.Equal(t, 0, testutil.Count(t, db, "bookings"))
	})
}

func TestCreateBookingValidation(t *testing.T) {
	svc := NewBookingService(nil, nil, nil, nil, false, zerolog.Nop())

	_, err := svc.Create(context.Background(), CreateBookingInput{OwnerRef: "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	var ae *apperror.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"sitter_id", "dog_id", "start_time", "end_time"}, ae.Fields)

	in := bookingInput("")
	in.EndTime = in.StartTime
	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// Package service orchestrates repositories into the operations exposed over
// HTTP: booking creation with posting closure and event publishing, and
// account registration and login.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/metrics"
	"github.com/iliyamo/pet-buddy/internal/queue"
	"github.com/iliyamo/pet-buddy/internal/repository"
)

// BookingWriter inserts a booking on a caller-held connection.
type BookingWriter interface {
	CreateWith(ctx context.Context, q database.Querier, b repository.NewBooking) (string, error)
}

// PostingStore is the part of the posting repository booking creation needs.
type PostingStore interface {
	CloseWith(ctx context.Context, q database.Querier, kind repository.PostingKind, id string) (bool, error)
	LocationWith(ctx context.Context, q database.Querier, kind repository.PostingKind, id string) (string, error)
}

type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

type CreateBookingInput struct {
	OwnerRef   string
	SitterRef  string
	DogRef     string
	StartTime  time.Time
	EndTime    time.Time
	Location   string
	SourceKind repository.PostingKind
	SourceID   string
}

type CreateBookingResult struct {
	BookingID     string `json:"booking_id"`
	PostingClosed bool   `json:"posting_closed"`
}

// BookingService creates bookings and closes the posting they came from.
//
// By default the close runs after the insert on the same connection and its
// failure only costs consistency: the booking stays, the posting stays
// active, a warning is logged and the result reports posting_closed=false.
// In strict mode insert and close share a transaction, and a posting that is
// no longer active rolls the booking back with a conflict.
type BookingService struct {
	db        *sql.DB
	bookings  BookingWriter
	postings  PostingStore
	publisher EventPublisher
	strict    bool
	log       zerolog.Logger

	inflight sync.WaitGroup
}

func NewBookingService(db *sql.DB, bookings BookingWriter, postings PostingStore, publisher EventPublisher, strict bool, log zerolog.Logger) *BookingService {
	return &BookingService{
		db:        db,
		bookings:  bookings,
		postings:  postings,
		publisher: publisher,
		strict:    strict,
		log:       log.With().Str("component", "booking-service").Logger(),
	}
}

// Validate reports every missing required field at once.
func (in CreateBookingInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.OwnerRef) == "" {
		missing = append(missing, "owner_id")
	}
	if strings.TrimSpace(in.SitterRef) == "" {
		missing = append(missing, "sitter_id")
	}
	if strings.TrimSpace(in.DogRef) == "" {
		missing = append(missing, "dog_id")
	}
	if in.StartTime.IsZero() {
		missing = append(missing, "start_time")
	}
	if in.EndTime.IsZero() {
		missing = append(missing, "end_time")
	}
	if len(missing) > 0 {
		return apperror.MissingFields(missing...)
	}
	if !in.EndTime.After(in.StartTime) {
		return apperror.ValidationFailed("end_time", "end_time must be after start_time")
	}
	return nil
}

// Create runs the booking creation sequence on one pooled connection.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (CreateBookingResult, error) {
	var res CreateBookingResult
	if err := in.Validate(); err != nil {
		metrics.BookingsCreatedTotal.WithLabelValues("rejected").Inc()
		return res, err
	}
	in.SourceID = strings.TrimSpace(in.SourceID)
	if in.SourceKind == "" {
		in.SourceKind = repository.SitterPostingKind
	}

	err := database.WithConn(ctx, s.db, func(conn *sql.Conn) error {
		nb := repository.NewBooking{
			OwnerRef:  in.OwnerRef,
			SitterRef: in.SitterRef,
			DogRef:    in.DogRef,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Location:  in.Location,
		}
		if in.SourceID != "" && strings.TrimSpace(nb.Location) == "" {
			loc, err := s.postings.LocationWith(ctx, conn, in.SourceKind, in.SourceID)
			if err != nil {
				s.log.Debug().Err(err).Str("posting_id", in.SourceID).Msg("posting location lookup failed")
			}
			nb.Location = loc
			in.Location = loc
		}

		if s.strict && in.SourceID != "" {
			return database.WithTx(ctx, conn, func(tx *sql.Tx) error {
				id, err := s.bookings.CreateWith(ctx, tx, nb)
				if err != nil {
					return err
				}
				closed, err := s.postings.CloseWith(ctx, tx, in.SourceKind, in.SourceID)
				s.countClose(in.SourceKind, closed, err)
				if err != nil {
					return err
				}
				if !closed {
					return apperror.Conflict("posting no longer active")
				}
				res = CreateBookingResult{BookingID: id, PostingClosed: true}
				return nil
			})
		}

		id, err := s.bookings.CreateWith(ctx, conn, nb)
		if err != nil {
			return err
		}
		res.BookingID = id
		if in.SourceID == "" {
			return nil
		}
		closed, err := s.postings.CloseWith(ctx, conn, in.SourceKind, in.SourceID)
		s.countClose(in.SourceKind, closed, err)
		if err != nil {
			s.log.Warn().Err(err).
				Str("booking_id", id).
				Str("posting_kind", string(in.SourceKind)).
				Str("posting_id", in.SourceID).
				Msg("booking created but source posting could not be closed")
			return nil
		}
		res.PostingClosed = closed
		return nil
	})
	if err != nil {
		s.countFailure(err)
		return CreateBookingResult{}, err
	}
	metrics.BookingsCreatedTotal.WithLabelValues("created").Inc()

	if s.publisher != nil {
		s.inflight.Go(func() { s.publish(ctx, in, res) })
	}
	return res, nil
}

// Wait blocks until every event handed to the broker has been published or
// given up on. The server calls it during shutdown.
func (s *BookingService) Wait() {
	s.inflight.Wait()
}

func (s *BookingService) countClose(kind repository.PostingKind, closed bool, err error) {
	result := "noop"
	switch {
	case err != nil:
		result = "error"
	case closed:
		result = "closed"
	}
	metrics.PostingCloseTotal.WithLabelValues(string(kind), result).Inc()
}

func (s *BookingService) countFailure(err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrReferenceNotFound),
		errors.Is(err, apperror.ErrConflict):
		metrics.BookingsCreatedTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.BookingsCreatedTotal.WithLabelValues("error").Inc()
	}
}

// publish hands the event to the broker off the request path. The booking
// is already committed, so failures are logged and swallowed.
func (s *BookingService) publish(ctx context.Context, in CreateBookingInput, res CreateBookingResult) {
	ev := queue.BookingCreatedEvent{
		BookingID:     res.BookingID,
		OwnerID:       in.OwnerRef,
		SitterID:      in.SitterRef,
		DogID:         in.DogRef,
		StartTime:     in.StartTime.UTC().Format(time.RFC3339),
		EndTime:       in.EndTime.UTC().Format(time.RFC3339),
		Location:      in.Location,
		SourceID:      in.SourceID,
		PostingClosed: res.PostingClosed,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if in.SourceID != "" {
		ev.SourceKind = string(in.SourceKind)
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishBookingCreated(pctx, ev); err != nil {
		s.log.Warn().Err(err).Str("booking_id", res.BookingID).Msg("publish booking.created failed")
	}
}

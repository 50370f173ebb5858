package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/schema"
)

// Booking status values. New bookings are always written as confirmed.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// NewBooking is the input of BookingRepo.Create. The references may be
// expressed in either key space; StartTime < EndTime is checked upstream.
type NewBooking struct {
	OwnerRef  string
	SitterRef string
	DogRef    string
	StartTime time.Time
	EndTime   time.Time
	Location  string
}

// Booking is one row of the owner or sitter booking list, enriched with the
// dog's display data and the counterparty's email.
type Booking struct {
	BookingID   string    `json:"booking_id"`
	OwnerID     string    `json:"owner_id"`
	SitterID    string    `json:"sitter_id"`
	DogID       string    `json:"dog_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	DogName     string    `json:"dog_name"`
	DogPhotoURL string    `json:"dog_photo_url,omitempty"`
	SitterEmail string    `json:"sitter_email,omitempty"`
	OwnerEmail  string    `json:"owner_email,omitempty"`
}

// BookingRepo writes and reads bookings against whichever schema generation
// is deployed.
type BookingRepo struct {
	db      *sql.DB
	dialect database.Dialect
	schema  *schema.Introspector
	norm    *Normalizer
}

func NewBookingRepo(db *sql.DB, d database.Dialect) *BookingRepo {
	return &BookingRepo{
		db:      db,
		dialect: d,
		schema:  schema.NewIntrospector(d),
		norm:    NewNormalizer(d),
	}
}

// Create inserts a booking on one pooled connection and returns its id.
func (r *BookingRepo) Create(ctx context.Context, b NewBooking) (string, error) {
	var id string
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		var err error
		id, err = r.CreateWith(ctx, conn, b)
		return err
	})
	return id, err
}

// CreateWith runs the whole creation sequence on q: one introspection pass
// over bookings, users and dogs, normalization of the three references, then
// a single INSERT. Nothing is written unless every reference resolved.
func (r *BookingRepo) CreateWith(ctx context.Context, q database.Querier, b NewBooking) (string, error) {
	snap, err := r.schema.Snapshot(ctx, q, "bookings", "users", "dogs")
	if err != nil {
		return "", err
	}
	bcols := snap.Of("bookings")

	ownerCol, err := bcols.Require("bookings", schema.BookingOwner)
	if err != nil {
		return "", err
	}
	sitterCol, err := bcols.Require("bookings", schema.BookingSitter)
	if err != nil {
		return "", err
	}
	dogCol, err := bcols.Require("bookings", schema.BookingDog)
	if err != nil {
		return "", err
	}

	owner, err := r.resolve(ctx, q, b.OwnerRef, "owner", Users, UserKeySpace(ownerCol), snap.Of("users"))
	if err != nil {
		return "", err
	}
	sitter, err := r.resolve(ctx, q, b.SitterRef, "sitter", Users, UserKeySpace(sitterCol), snap.Of("users"))
	if err != nil {
		return "", err
	}
	dog, err := r.resolve(ctx, q, b.DogRef, "dog", Dogs, DogKeySpace(dogCol), snap.Of("dogs"))
	if err != nil {
		return "", err
	}

	plan := schema.NewInsert("bookings", bcols)
	pk, _ := bcols.Resolve(schema.BookingPK)
	id := keyPlan(plan, bcols, pk, newUUID)
	plan.Set(ownerCol, owner).
		Set(sitterCol, sitter).
		Set(dogCol, dog).
		Require("start_time", r.dialect.TimeArg(b.StartTime)).
		Require("end_time", r.dialect.TimeArg(b.EndTime)).
		Set("start_date", b.StartTime.Format(time.DateOnly)).
		Set("end_date", b.EndTime.Format(time.DateOnly)).
		Set("location", b.Location).
		SetLogical(schema.BookingStatus, StatusConfirmed)

	return execInsert(ctx, q, r.dialect, plan, id, "booking")
}

// resolve normalizes one reference and names it when it does not resolve.
func (r *BookingRepo) resolve(ctx context.Context, q database.Querier, raw, name string, e Entity, k KeySpace, cols schema.ColumnSet) (any, error) {
	v, err := r.norm.Resolve(ctx, q, raw, e, k, cols)
	if errors.Is(err, ErrUnresolved) {
		return nil, apperror.ReferenceNotFound(name)
	}
	return v, err
}

type party int

const (
	partyOwner party = iota
	partySitter
)

// ListForOwner returns the owner's bookings, soonest first. The result is
// sorted again in memory by parsed start time since stored timestamps are not
// comparable across generations.
func (r *BookingRepo) ListForOwner(ctx context.Context, ownerRef string) ([]Booking, error) {
	return r.list(ctx, ownerRef, partyOwner)
}

// ListForSitter returns the sitter's bookings, most recent first.
func (r *BookingRepo) ListForSitter(ctx context.Context, sitterRef string) ([]Booking, error) {
	return r.list(ctx, sitterRef, partySitter)
}

func (r *BookingRepo) list(ctx context.Context, ref string, side party) ([]Booking, error) {
	var out []Booking
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		var err error
		out, err = r.listWith(ctx, conn, ref, side)
		return err
	})
	return out, err
}

func (r *BookingRepo) listWith(ctx context.Context, q database.Querier, ref string, side party) ([]Booking, error) {
	snap, err := r.schema.Snapshot(ctx, q, "bookings", "users", "dogs")
	if err != nil {
		return nil, err
	}
	bcols, ucols, dcols := snap.Of("bookings"), snap.Of("users"), snap.Of("dogs")

	pkCol, err := bcols.Require("bookings", schema.BookingPK)
	if err != nil {
		return nil, err
	}
	ownerCol, err := bcols.Require("bookings", schema.BookingOwner)
	if err != nil {
		return nil, err
	}
	sitterCol, err := bcols.Require("bookings", schema.BookingSitter)
	if err != nil {
		return nil, err
	}
	dogCol, err := bcols.Require("bookings", schema.BookingDog)
	if err != nil {
		return nil, err
	}

	filterCol, counterCol, order := ownerCol, sitterCol, "ASC"
	if side == partySitter {
		filterCol, counterCol, order = sitterCol, ownerCol, "DESC"
	}

	key, err := r.norm.Resolve(ctx, q, ref, Users, UserKeySpace(filterCol), ucols)
	if errors.Is(err, ErrUnresolved) {
		return []Booking{}, nil
	}
	if err != nil {
		return nil, err
	}

	dogKey, ok := Dogs.KeyColumn(dcols, DogKeySpace(dogCol))
	if !ok {
		return nil, apperror.SchemaMissing("dogs", Dogs.Canonical, Dogs.Alternate)
	}
	userKey, ok := Users.KeyColumn(ucols, UserKeySpace(counterCol))
	if !ok {
		return nil, apperror.SchemaMissing("users", Users.Canonical, Users.Alternate)
	}

	d := r.dialect
	bc := func(c string) string { return "b." + d.Quote(c) }

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s b
		LEFT JOIN %s d ON d.%s = b.%s
		LEFT JOIN %s u ON u.%s = b.%s
		WHERE %s = ?
		ORDER BY %s %s`,
		bc(pkCol), bc(ownerCol), bc(sitterCol), bc(dogCol),
		bc("start_time"), bc("end_time"),
		colOrNull(d, bcols, "b", "location"),
		colOrNull(d, bcols, "b", schema.Variants(schema.BookingStatus)...),
		colOrNull(d, dcols, "d", schema.Variants(schema.DogName)...),
		colOrNull(d, dcols, "d", schema.Variants(schema.DogPhoto)...),
		colOrNull(d, ucols, "u", "email"),
		d.Quote("bookings"),
		d.Quote("dogs"), d.Quote(dogKey), d.Quote(dogCol),
		d.Quote("users"), d.Quote(userKey), d.Quote(counterCol),
		bc(filterCol),
		bc("start_time"), order,
	)

	rows, err := q.QueryContext(ctx, d.Rebind(query), key)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", apperror.FromDB(err))
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		var v [11]any
		ptrs := make([]any, len(v))
		for i := range v {
			ptrs[i] = &v[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b := Booking{
			BookingID:   asString(v[0]),
			OwnerID:     asString(v[1]),
			SitterID:    asString(v[2]),
			DogID:       asString(v[3]),
			StartTime:   asTime(v[4]),
			EndTime:     asTime(v[5]),
			Location:    asString(v[6]),
			Status:      asString(v[7]),
			DogName:     asString(v[8]),
			DogPhotoURL: asString(v[9]),
		}
		if side == partyOwner {
			b.SitterEmail = asString(v[10])
		} else {
			b.OwnerEmail = asString(v[10])
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", apperror.FromDB(err))
	}

	sortByStart(out, side == partyOwner)
	return out, nil
}

// sortByStart orders bookings by parsed start time, keeping the store's
// order for equal times.
func sortByStart(bs []Booking, ascending bool) {
	sort.SliceStable(bs, func(i, j int) bool {
		if ascending {
			return bs[i].StartTime.Before(bs[j].StartTime)
		}
		return bs[j].StartTime.Before(bs[i].StartTime)
	})
}

// UpdateStatus sets the status column of one booking. It reports whether a
// row changed. Deployments without a status column reject the call.
func (r *BookingRepo) UpdateStatus(ctx context.Context, bookingID, status string) (bool, error) {
	if !ValidStatus(status) {
		return false, apperror.ValidationFailed("status", "status must be one of: pending, confirmed, completed, cancelled")
	}
	var changed bool
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		cols, err := r.schema.Columns(ctx, conn, "bookings")
		if err != nil {
			return err
		}
		statusCol, err := cols.Require("bookings", schema.BookingStatus)
		if err != nil {
			return err
		}
		pkCol, err := cols.Require("bookings", schema.BookingPK)
		if err != nil {
			return err
		}
		if !matchable(cols, pkCol, bookingID) {
			return nil
		}
		d := r.dialect
		query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s",
			d.Quote("bookings"), d.Quote(statusCol), d.KeyMatch(d.Quote(pkCol)))
		res, err := conn.ExecContext(ctx, d.Rebind(query), status, bookingID)
		if err != nil {
			return fmt.Errorf("update booking status: %w", apperror.FromDB(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		changed = n > 0
		return nil
	})
	return changed, err
}

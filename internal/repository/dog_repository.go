package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/schema"
)

type NewDog struct {
	OwnerRef    string
	Name        string
	Breed       string
	Personality string
	Notes       string
	PhotoURL    string
}

type Dog struct {
	DogID       string    `json:"dog_id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Breed       string    `json:"breed,omitempty"`
	Personality string    `json:"personality,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type DogRepo struct {
	db      *sql.DB
	dialect database.Dialect
	schema  *schema.Introspector
	norm    *Normalizer
}

func NewDogRepo(db *sql.DB, d database.Dialect) *DogRepo {
	return &DogRepo{db: db, dialect: d, schema: schema.NewIntrospector(d), norm: NewNormalizer(d)}
}

// ownerSpace returns the owner column of dogs and the user key space it
// stores. Legacy dogs.user_id holds users.user_id; owner_id holds users.id.
func ownerSpace(cols schema.ColumnSet) (string, KeySpace, error) {
	col, err := cols.Require("dogs", schema.DogOwner)
	if err != nil {
		return "", 0, err
	}
	return col, UserKeySpace(col), nil
}

// Create registers a dog for its owner and returns the dog's key.
func (r *DogRepo) Create(ctx context.Context, dog NewDog) (string, error) {
	var id string
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "dogs", "users")
		if err != nil {
			return err
		}
		cols := snap.Of("dogs")
		ownerCol, space, err := ownerSpace(cols)
		if err != nil {
			return err
		}
		owner, err := r.norm.Resolve(ctx, conn, dog.OwnerRef, Users, space, snap.Of("users"))
		if errors.Is(err, ErrUnresolved) {
			return apperror.ReferenceNotFound("owner")
		}
		if err != nil {
			return err
		}

		plan := schema.NewInsert("dogs", cols)
		pk, _ := cols.Resolve(schema.DogPK)
		preset := keyPlan(plan, cols, pk, newUUID)
		nameCol, err := cols.Require("dogs", schema.DogName)
		if err != nil {
			return err
		}
		plan.Set(ownerCol, owner).
			Require(nameCol, dog.Name).
			Set("breed", nullIfEmpty(dog.Breed)).
			Set("personality", nullIfEmpty(dog.Personality)).
			SetLogical(schema.DogNotes, nullIfEmpty(dog.Notes)).
			SetLogical(schema.DogPhoto, nullIfEmpty(dog.PhotoURL))

		id, err = execInsert(ctx, conn, r.dialect, plan, preset, "dog")
		return err
	})
	return id, err
}

// ListByOwner returns the owner's dogs, newest first. An unknown owner has
// no dogs.
func (r *DogRepo) ListByOwner(ctx context.Context, ownerRef string) ([]Dog, error) {
	out := []Dog{}
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "dogs", "users")
		if err != nil {
			return err
		}
		cols := snap.Of("dogs")
		ownerCol, space, err := ownerSpace(cols)
		if err != nil {
			return err
		}
		pk, err := cols.Require("dogs", schema.DogPK)
		if err != nil {
			return err
		}
		owner, err := r.norm.Resolve(ctx, conn, ownerRef, Users, space, snap.Of("users"))
		if errors.Is(err, ErrUnresolved) {
			return nil
		}
		if err != nil {
			return err
		}

		d := r.dialect
		query := fmt.Sprintf(`SELECT d.%s, d.%s, %s, %s, %s, %s, %s, %s
			FROM %s d
			WHERE d.%s = ?
			ORDER BY %s`,
			d.Quote(pk), d.Quote(ownerCol),
			colOrNull(d, cols, "d", schema.Variants(schema.DogName)...),
			colOrNull(d, cols, "d", "breed"),
			colOrNull(d, cols, "d", "personality"),
			colOrNull(d, cols, "d", schema.Variants(schema.DogNotes)...),
			colOrNull(d, cols, "d", schema.Variants(schema.DogPhoto)...),
			colOrNull(d, cols, "d", "created_at"),
			d.Quote("dogs"),
			d.Quote(ownerCol),
			newestFirst(d, cols, "d", pk),
		)
		rows, err := conn.QueryContext(ctx, d.Rebind(query), owner)
		if err != nil {
			return fmt.Errorf("list dogs: %w", apperror.FromDB(err))
		}
		defer rows.Close()
		for rows.Next() {
			var v [8]any
			if err := rows.Scan(scanTargets(v[:])...); err != nil {
				return fmt.Errorf("scan dog: %w", err)
			}
			out = append(out, Dog{
				DogID:       asString(v[0]),
				OwnerID:     asString(v[1]),
				Name:        asString(v[2]),
				Breed:       asString(v[3]),
				Personality: asString(v[4]),
				Notes:       asString(v[5]),
				PhotoURL:    asString(v[6]),
				CreatedAt:   asTime(v[7]),
			})
		}
		return rows.Err()
	})
	return out, err
}

// Delete removes the dog only when it belongs to ownerRef. Zero affected
// rows is NotFound, whether the dog is missing or owned by someone else.
func (r *DogRepo) Delete(ctx context.Context, dogID, ownerRef string) error {
	return database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "dogs", "users")
		if err != nil {
			return err
		}
		cols := snap.Of("dogs")
		ownerCol, space, err := ownerSpace(cols)
		if err != nil {
			return err
		}
		pk, err := cols.Require("dogs", schema.DogPK)
		if err != nil {
			return err
		}
		if !matchable(cols, pk, dogID) {
			return apperror.NotFound("dog", dogID)
		}
		owner, err := r.norm.Resolve(ctx, conn, ownerRef, Users, space, snap.Of("users"))
		if errors.Is(err, ErrUnresolved) {
			return apperror.NotFound("dog", dogID)
		}
		if err != nil {
			return err
		}

		d := r.dialect
		query := fmt.Sprintf("DELETE FROM %s WHERE %s AND %s = ?",
			d.Quote("dogs"), d.KeyMatch(d.Quote(pk)), d.Quote(ownerCol))
		res, err := conn.ExecContext(ctx, d.Rebind(query), dogID, owner)
		if err != nil {
			return fmt.Errorf("delete dog: %w", apperror.FromDB(err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("dog", dogID)
		}
		return nil
	})
}

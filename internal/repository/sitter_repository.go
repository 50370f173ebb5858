package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/schema"
)

// Sitter is a sitter profile joined with the user's contact data.
type Sitter struct {
	SitterID         string `json:"sitter_id"`
	UserID           string `json:"user_id"`
	SelfIntroduction string `json:"self_introduction"`
	TotalEarnings    int64  `json:"total_earnings"`
	Email            string `json:"email"`
	Phone            string `json:"phone_number"`
	FullName         string `json:"full_name"`
}

// SitterRepo stores sitter profiles. A user has at most one.
type SitterRepo struct {
	db      *sql.DB
	dialect database.Dialect
	schema  *schema.Introspector
	norm    *Normalizer
}

func NewSitterRepo(db *sql.DB, d database.Dialect) *SitterRepo {
	return &SitterRepo{db: db, dialect: d, schema: schema.NewIntrospector(d), norm: NewNormalizer(d)}
}

// CreateProfile registers userRef as a sitter. A second profile for the same
// user is a conflict.
func (r *SitterRepo) CreateProfile(ctx context.Context, userRef, intro string) (string, error) {
	var id string
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "sitters", "users")
		if err != nil {
			return err
		}
		cols := snap.Of("sitters")
		user, err := r.norm.Resolve(ctx, conn, userRef, Users, UserKeySpace("user_id"), snap.Of("users"))
		if errors.Is(err, ErrUnresolved) {
			return apperror.ReferenceNotFound("user")
		}
		if err != nil {
			return err
		}

		plan := schema.NewInsert("sitters", cols)
		pk, _ := cols.Resolve(schema.SitterPK)
		preset := keyPlan(plan, cols, pk, newUUID)
		plan.Require("user_id", user).
			Set("self_introduction", nullIfEmpty(intro)).
			Set("total_earnings", 0)

		id, err = execInsert(ctx, conn, r.dialect, plan, preset, "sitter profile")
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict("sitter profile already exists")
		}
		return err
	})
	return id, err
}

// Get returns the profile of the user, or NotFound.
func (r *SitterRepo) Get(ctx context.Context, userRef string) (Sitter, error) {
	var out Sitter
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "sitters", "users")
		if err != nil {
			return err
		}
		user, err := r.norm.Resolve(ctx, conn, userRef, Users, UserKeySpace("user_id"), snap.Of("users"))
		if errors.Is(err, ErrUnresolved) {
			return apperror.NotFound("sitter", userRef)
		}
		if err != nil {
			return err
		}
		query, err := r.selectQuery(snap, "WHERE s."+r.dialect.Quote("user_id")+" = ?")
		if err != nil {
			return err
		}
		list, err := r.scan(ctx, conn, query, user)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return apperror.NotFound("sitter", userRef)
		}
		out = list[0]
		return nil
	})
	return out, err
}

// IsSitter reports whether the user has a sitter profile.
func (r *SitterRepo) IsSitter(ctx context.Context, userRef string) (bool, error) {
	_, err := r.Get(ctx, userRef)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns every sitter, highest earners first.
func (r *SitterRepo) List(ctx context.Context) ([]Sitter, error) {
	out := []Sitter{}
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "sitters", "users")
		if err != nil {
			return err
		}
		query, err := r.selectQuery(snap, "")
		if err != nil {
			return err
		}
		list, err := r.scan(ctx, conn, query)
		if err != nil {
			return err
		}
		out = append(out, list...)
		return nil
	})
	return out, err
}

func (r *SitterRepo) selectQuery(snap schema.Snapshot, where string) (string, error) {
	scols, ucols := snap.Of("sitters"), snap.Of("users")
	pk, err := scols.Require("sitters", schema.SitterPK)
	if err != nil {
		return "", err
	}
	if !scols.Has("user_id") {
		return "", apperror.SchemaMissing("sitters", "user_id")
	}
	userKey, ok := Users.KeyColumn(ucols, UserKeySpace("user_id"))
	if !ok {
		return "", apperror.SchemaMissing("users", Users.Canonical, Users.Alternate)
	}

	d := r.dialect
	order := "s." + d.Quote(pk) + " ASC"
	if scols.Has("total_earnings") {
		order = "s." + d.Quote("total_earnings") + " DESC, " + order
	}
	return d.Rebind(fmt.Sprintf(`SELECT s.%s, s.%s, %s, %s, %s, %s, %s
		FROM %s s
		JOIN %s u ON u.%s = s.%s
		%s
		ORDER BY %s`,
		d.Quote(pk), d.Quote("user_id"),
		colOrNull(d, scols, "s", "self_introduction"),
		colOrNull(d, scols, "s", "total_earnings"),
		colOrNull(d, ucols, "u", "email"),
		colOrNull(d, ucols, "u", schema.Variants(schema.UserPhone)...),
		colOrNull(d, ucols, "u", schema.Variants(schema.UserName)...),
		d.Quote("sitters"),
		d.Quote("users"), d.Quote(userKey), d.Quote("user_id"),
		where, order)), nil
}

func (r *SitterRepo) scan(ctx context.Context, q database.Querier, query string, args ...any) ([]Sitter, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sitters: %w", apperror.FromDB(err))
	}
	defer rows.Close()

	var out []Sitter
	for rows.Next() {
		var v [7]any
		if err := rows.Scan(scanTargets(v[:])...); err != nil {
			return nil, fmt.Errorf("scan sitter: %w", err)
		}
		out = append(out, Sitter{
			SitterID:         asString(v[0]),
			UserID:           asString(v[1]),
			SelfIntroduction: asString(v[2]),
			TotalEarnings:    asInt64(v[3]),
			Email:            asString(v[4]),
			Phone:            asString(v[5]),
			FullName:         asString(v[6]),
		})
	}
	return out, rows.Err()
}

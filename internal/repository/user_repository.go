package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/schema"
	"github.com/iliyamo/pet-buddy/internal/utils"
)

// User is a row of users in whichever generation is deployed. ID is the key
// the rest of the schema references: user_id when present, otherwise id.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Phone        string
	FullName     string
}

type NewUser struct {
	Email    string
	Password string
	Phone    string
	FullName string
}

type UserRepo struct {
	db      *sql.DB
	dialect database.Dialect
	schema  *schema.Introspector
	norm    *Normalizer
}

func NewUserRepo(db *sql.DB, d database.Dialect) *UserRepo {
	return &UserRepo{db: db, dialect: d, schema: schema.NewIntrospector(d), norm: NewNormalizer(d)}
}

// Create hashes the password and inserts the user, returning its key.
func (r *UserRepo) Create(ctx context.Context, u NewUser, cost int) (string, error) {
	email := normalizeEmail(u.Email)
	hash, err := utils.HashPassword(u.Password, cost)
	if err != nil {
		return "", err
	}

	var id string
	err = database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		cols, err := r.schema.Columns(ctx, conn, "users")
		if err != nil {
			return err
		}
		pwCol, err := cols.Require("users", schema.UserPassword)
		if err != nil {
			return err
		}
		plan := schema.NewInsert("users", cols)
		pk, _ := cols.Resolve(schema.UserPK)
		preset := keyPlan(plan, cols, pk, newUUID)
		if pk == Users.Canonical && cols.Has(Users.Alternate) && !cols.Generated(Users.Alternate) {
			// Halfway through migration id is an opaque key filled by the writer.
			plan.Set(Users.Alternate, newUUID())
		}
		plan.Require("email", email).
			Set(pwCol, hash).
			SetLogical(schema.UserPhone, nullIfEmpty(u.Phone)).
			SetLogical(schema.UserName, nullIfEmpty(u.FullName))

		id, err = execInsert(ctx, conn, r.dialect, plan, preset, "user")
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict("user already exists")
		}
		return err
	})
	return id, err
}

// GetByEmail returns the user with the normalized email, or NotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	var u User
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		cols, err := r.schema.Columns(ctx, conn, "users")
		if err != nil {
			return err
		}
		u, err = r.fetch(ctx, conn, cols, r.dialect.Quote("email")+" = ?", email)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("user", email)
		}
		return err
	})
	return u, err
}

// GetByID accepts a key from either generation.
func (r *UserRepo) GetByID(ctx context.Context, ref string) (User, error) {
	var u User
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		cols, err := r.schema.Columns(ctx, conn, "users")
		if err != nil {
			return err
		}
		key, err := r.norm.Resolve(ctx, conn, ref, Users, KeyCanonical, cols)
		if errors.Is(err, ErrUnresolved) {
			return apperror.NotFound("user", ref)
		}
		if err != nil {
			return err
		}
		keyCol, _ := Users.KeyColumn(cols, KeyCanonical)
		u, err = r.fetch(ctx, conn, cols, r.dialect.KeyMatch(r.dialect.Quote(keyCol)), formatKey(key))
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("user", ref)
		}
		return err
	})
	return u, err
}

func (r *UserRepo) fetch(ctx context.Context, q database.Querier, cols schema.ColumnSet, where string, arg any) (User, error) {
	keyCol, ok := Users.KeyColumn(cols, KeyCanonical)
	if !ok {
		return User{}, apperror.SchemaMissing("users", Users.Canonical, Users.Alternate)
	}
	d := r.dialect
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s u WHERE %s LIMIT 1",
		"u."+d.Quote(keyCol),
		colOrNull(d, cols, "u", "email"),
		colOrNull(d, cols, "u", schema.Variants(schema.UserPassword)...),
		colOrNull(d, cols, "u", schema.Variants(schema.UserPhone)...),
		colOrNull(d, cols, "u", schema.Variants(schema.UserName)...),
		d.Quote("users"), where)

	var v [5]any
	if err := q.QueryRowContext(ctx, d.Rebind(query), arg).Scan(scanTargets(v[:])...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("get user: %w", apperror.FromDB(err))
	}
	return User{
		ID:           asString(v[0]),
		Email:        asString(v[1]),
		PasswordHash: asString(v[2]),
		Phone:        asString(v[3]),
		FullName:     asString(v[4]),
	}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

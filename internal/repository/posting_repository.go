package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/schema"
)

// Posting lifecycle states. Only active postings are listed publicly.
const (
	PostingActive = "active"
	PostingClosed = "closed"
)

// PostingKind distinguishes owner job postings from sitter availability
// postings.
type PostingKind string

const (
	JobPostingKind    PostingKind = "job"
	SitterPostingKind PostingKind = "sitter"
)

// ParsePostingKind accepts "job" and "sitter"; empty means sitter, the kind
// bookings are usually made from.
func ParsePostingKind(s string) (PostingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sitter", "sitter_posting":
		return SitterPostingKind, nil
	case "job", "job_posting":
		return JobPostingKind, nil
	}
	return "", apperror.ValidationFailed("source_kind", "source_kind must be job or sitter")
}

type postingTable struct {
	name   string
	pk     schema.Logical
	author string
}

func (k PostingKind) table() postingTable {
	if k == JobPostingKind {
		return postingTable{name: "job_postings", pk: schema.JobPK, author: "owner_id"}
	}
	return postingTable{name: "sitter_postings", pk: schema.SitterPostingPK, author: "sitter_id"}
}

type NewJobPosting struct {
	OwnerRef    string
	DogRef      string
	Title       string
	Description string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
}

type NewSitterPosting struct {
	SitterRef     string
	Title         string
	Description   string
	Location      string
	AvailableFrom time.Time
	AvailableTo   time.Time
}

// JobPosting is an owner's listing joined with the owner and dog display data.
type JobPosting struct {
	JobID       string    `json:"job_id"`
	OwnerID     string    `json:"owner_id"`
	DogID       string    `json:"dog_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerName   string    `json:"owner_name"`
	OwnerEmail  string    `json:"owner_email"`
	DogName     string    `json:"dog_name,omitempty"`
	DogBreed    string    `json:"dog_breed,omitempty"`
	DogPhotoURL string    `json:"dog_photo_url,omitempty"`
}

// SitterPosting is a sitter's availability listing joined with the sitter's
// display data.
type SitterPosting struct {
	PostID        string    `json:"post_id"`
	SitterID      string    `json:"sitter_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	AvailableFrom string    `json:"available_from"`
	AvailableTo   string    `json:"available_to"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	SitterName    string    `json:"sitter_name"`
	SitterEmail   string    `json:"sitter_email"`
}

// PostingRepo manages job and sitter postings.
type PostingRepo struct {
	db      *sql.DB
	dialect database.Dialect
	schema  *schema.Introspector
	norm    *Normalizer
}

func NewPostingRepo(db *sql.DB, d database.Dialect) *PostingRepo {
	return &PostingRepo{
		db:      db,
		dialect: d,
		schema:  schema.NewIntrospector(d),
		norm:    NewNormalizer(d),
	}
}

// CreateJobPosting inserts an active job posting and returns its id.
func (r *PostingRepo) CreateJobPosting(ctx context.Context, p NewJobPosting) (string, error) {
	var id string
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "job_postings", "users", "dogs")
		if err != nil {
			return err
		}
		cols := snap.Of("job_postings")
		if !cols.Has("owner_id") {
			return apperror.SchemaMissing("job_postings", "owner_id")
		}

		owner, err := r.resolve(ctx, conn, p.OwnerRef, "owner", Users, UserKeySpace("owner_id"), snap.Of("users"))
		if err != nil {
			return err
		}
		var dog any
		if strings.TrimSpace(p.DogRef) != "" {
			// Job postings were introduced with the uuid dogs table and
			// always reference dogs.id.
			if dog, err = r.resolve(ctx, conn, p.DogRef, "dog", Dogs, KeyAlternate, snap.Of("dogs")); err != nil {
				return err
			}
		}

		plan := schema.NewInsert("job_postings", cols)
		pk, _ := cols.Resolve(schema.JobPK)
		preset := keyPlan(plan, cols, pk, newUUID)
		plan.Set("owner_id", owner).
			Set("dog_id", dog).
			Require("title", p.Title).
			Set("description", nullIfEmpty(p.Description)).
			Set("location", nullIfEmpty(p.Location)).
			Set("start_date", dateArg(p.StartDate)).
			Set("end_date", dateArg(p.EndDate)).
			Set("status", PostingActive)

		id, err = execInsert(ctx, conn, r.dialect, plan, preset, "job posting")
		return err
	})
	return id, err
}

// CreateSitterPosting inserts an active sitter posting and returns its id.
func (r *PostingRepo) CreateSitterPosting(ctx context.Context, p NewSitterPosting) (string, error) {
	var id string
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "sitter_postings", "users")
		if err != nil {
			return err
		}
		cols := snap.Of("sitter_postings")
		if !cols.Has("sitter_id") {
			return apperror.SchemaMissing("sitter_postings", "sitter_id")
		}

		sitter, err := r.resolve(ctx, conn, p.SitterRef, "sitter", Users, UserKeySpace("sitter_id"), snap.Of("users"))
		if err != nil {
			return err
		}

		plan := schema.NewInsert("sitter_postings", cols)
		pk, _ := cols.Resolve(schema.SitterPostingPK)
		preset := keyPlan(plan, cols, pk, newUUID)
		plan.Set("sitter_id", sitter).
			Require("title", p.Title).
			Set("description", nullIfEmpty(p.Description)).
			Set("location", nullIfEmpty(p.Location)).
			Set("available_from", dateArg(p.AvailableFrom)).
			Set("available_to", dateArg(p.AvailableTo)).
			Set("status", PostingActive)

		id, err = execInsert(ctx, conn, r.dialect, plan, preset, "sitter posting")
		return err
	})
	return id, err
}

func (r *PostingRepo) resolve(ctx context.Context, q database.Querier, raw, name string, e Entity, k KeySpace, cols schema.ColumnSet) (any, error) {
	v, err := r.norm.Resolve(ctx, q, raw, e, k, cols)
	if errors.Is(err, ErrUnresolved) {
		return nil, apperror.ReferenceNotFound(name)
	}
	return v, err
}

// ListActiveJobPostings returns active job postings, newest first, with the
// owner's display name and email and the dog's name, breed and photo.
func (r *PostingRepo) ListActiveJobPostings(ctx context.Context) ([]JobPosting, error) {
	out := []JobPosting{}
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "job_postings", "users", "dogs")
		if err != nil {
			return err
		}
		jcols, ucols, dcols := snap.Of("job_postings"), snap.Of("users"), snap.Of("dogs")
		pk, err := jcols.Require("job_postings", schema.JobPK)
		if err != nil {
			return err
		}
		userKey, ok := Users.KeyColumn(ucols, UserKeySpace("owner_id"))
		if !ok {
			return apperror.SchemaMissing("users", Users.Canonical, Users.Alternate)
		}
		dogKey, _ := Dogs.KeyColumn(dcols, KeyAlternate)

		d := r.dialect
		jp := func(c string) string { return colOrNull(d, jcols, "jp", c) }
		dogJoin := ""
		dogSel := "NULL, NULL, NULL"
		if dogKey != "" && jcols.Has("dog_id") {
			dogJoin = fmt.Sprintf("LEFT JOIN %s d ON d.%s = jp.%s", d.Quote("dogs"), d.Quote(dogKey), d.Quote("dog_id"))
			dogSel = strings.Join([]string{
				colOrNull(d, dcols, "d", schema.Variants(schema.DogName)...),
				colOrNull(d, dcols, "d", "breed"),
				colOrNull(d, dcols, "d", schema.Variants(schema.DogPhoto)...),
			}, ", ")
		}

		query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
			FROM %s jp
			JOIN %s u ON u.%s = jp.%s
			%s
			WHERE jp.%s = ?
			ORDER BY %s`,
			jp(pk), jp("owner_id"), jp("dog_id"), jp("title"), jp("description"), jp("location"),
			jp("start_date"), jp("end_date"), jp("status"), jp("created_at"),
			colOrNull(d, ucols, "u", schema.Variants(schema.UserName)...),
			colOrNull(d, ucols, "u", "email"),
			dogSel,
			d.Quote("job_postings"),
			d.Quote("users"), d.Quote(userKey), d.Quote("owner_id"),
			dogJoin,
			d.Quote("status"),
			newestFirst(d, jcols, "jp", pk),
		)

		rows, err := conn.QueryContext(ctx, d.Rebind(query), PostingActive)
		if err != nil {
			return fmt.Errorf("list job postings: %w", apperror.FromDB(err))
		}
		defer rows.Close()
		for rows.Next() {
			var v [15]any
			if err := rows.Scan(scanTargets(v[:])...); err != nil {
				return fmt.Errorf("scan job posting: %w", err)
			}
			email := asString(v[11])
			out = append(out, JobPosting{
				JobID:       asString(v[0]),
				OwnerID:     asString(v[1]),
				DogID:       asString(v[2]),
				Title:       asString(v[3]),
				Description: asString(v[4]),
				Location:    asString(v[5]),
				StartDate:   dateOrEmpty(v[6]),
				EndDate:     dateOrEmpty(v[7]),
				Status:      asString(v[8]),
				CreatedAt:   asTime(v[9]),
				OwnerName:   displayName(asString(v[10]), email),
				OwnerEmail:  email,
				DogName:     asString(v[12]),
				DogBreed:    asString(v[13]),
				DogPhotoURL: asString(v[14]),
			})
		}
		return rows.Err()
	})
	return out, err
}

// ListActiveSitterPostings returns active sitter postings, newest first,
// with the sitter's display name and email.
func (r *PostingRepo) ListActiveSitterPostings(ctx context.Context) ([]SitterPosting, error) {
	out := []SitterPosting{}
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		snap, err := r.schema.Snapshot(ctx, conn, "sitter_postings", "users")
		if err != nil {
			return err
		}
		scols, ucols := snap.Of("sitter_postings"), snap.Of("users")
		pk, err := scols.Require("sitter_postings", schema.SitterPostingPK)
		if err != nil {
			return err
		}
		userKey, ok := Users.KeyColumn(ucols, UserKeySpace("sitter_id"))
		if !ok {
			return apperror.SchemaMissing("users", Users.Canonical, Users.Alternate)
		}

		d := r.dialect
		sp := func(c string) string { return colOrNull(d, scols, "sp", c) }
		query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
			FROM %s sp
			JOIN %s u ON u.%s = sp.%s
			WHERE sp.%s = ?
			ORDER BY %s`,
			sp(pk), sp("sitter_id"), sp("title"), sp("description"), sp("location"),
			sp("available_from"), sp("available_to"), sp("status"), sp("created_at"),
			colOrNull(d, ucols, "u", schema.Variants(schema.UserName)...),
			colOrNull(d, ucols, "u", "email"),
			d.Quote("sitter_postings"),
			d.Quote("users"), d.Quote(userKey), d.Quote("sitter_id"),
			d.Quote("status"),
			newestFirst(d, scols, "sp", pk),
		)

		rows, err := conn.QueryContext(ctx, d.Rebind(query), PostingActive)
		if err != nil {
			return fmt.Errorf("list sitter postings: %w", apperror.FromDB(err))
		}
		defer rows.Close()
		for rows.Next() {
			var v [11]any
			if err := rows.Scan(scanTargets(v[:])...); err != nil {
				return fmt.Errorf("scan sitter posting: %w", err)
			}
			email := asString(v[10])
			out = append(out, SitterPosting{
				PostID:        asString(v[0]),
				SitterID:      asString(v[1]),
				Title:         asString(v[2]),
				Description:   asString(v[3]),
				Location:      asString(v[4]),
				AvailableFrom: dateOrEmpty(v[5]),
				AvailableTo:   dateOrEmpty(v[6]),
				Status:        asString(v[7]),
				CreatedAt:     asTime(v[8]),
				SitterName:    displayName(asString(v[9]), email),
				SitterEmail:   email,
			})
		}
		return rows.Err()
	})
	return out, err
}

// Close moves a posting to closed on its own pooled connection.
func (r *PostingRepo) Close(ctx context.Context, kind PostingKind, id string) (bool, error) {
	var changed bool
	err := database.WithConn(ctx, r.db, func(conn *sql.Conn) error {
		var err error
		changed, err = r.CloseWith(ctx, conn, kind, id)
		return err
	})
	return changed, err
}

// CloseWith transitions the posting to closed and reports whether this call
// changed it. Closing an already closed or unknown posting is a no-op that
// reports false, so the call is safe to repeat.
func (r *PostingRepo) CloseWith(ctx context.Context, q database.Querier, kind PostingKind, id string) (bool, error) {
	t := kind.table()
	cols, err := r.schema.Columns(ctx, q, t.name)
	if err != nil {
		return false, err
	}
	pk, err := cols.Require(t.name, t.pk)
	if err != nil {
		return false, err
	}
	if !cols.Has("status") {
		return false, apperror.SchemaMissing(t.name, "status")
	}
	if !matchable(cols, pk, id) {
		return false, nil
	}

	d := r.dialect
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s AND %s <> ?",
		d.Quote(t.name), d.Quote("status"), d.KeyMatch(d.Quote(pk)), d.Quote("status"))
	res, err := q.ExecContext(ctx, d.Rebind(query), PostingClosed, id, PostingClosed)
	if err != nil {
		return false, fmt.Errorf("close %s: %w", t.name, apperror.FromDB(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LocationWith returns the location of a posting, or "" when the posting or
// the column does not exist.
func (r *PostingRepo) LocationWith(ctx context.Context, q database.Querier, kind PostingKind, id string) (string, error) {
	t := kind.table()
	cols, err := r.schema.Columns(ctx, q, t.name)
	if err != nil {
		return "", err
	}
	pk, err := cols.Require(t.name, t.pk)
	if err != nil {
		return "", err
	}
	if !cols.Has("location") || !matchable(cols, pk, id) {
		return "", nil
	}

	d := r.dialect
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		d.Quote("location"), d.Quote(t.name), d.KeyMatch(d.Quote(pk)))
	var loc any
	err = q.QueryRowContext(ctx, d.Rebind(query), id).Scan(&loc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("posting location: %w", apperror.FromDB(err))
	}
	return asString(loc), nil
}

// newestFirst orders by created_at when the table has it, then by key.
func newestFirst(d database.Dialect, cols schema.ColumnSet, alias, pk string) string {
	order := alias + "." + d.Quote(pk) + " DESC"
	if cols.Has("created_at") {
		order = alias + "." + d.Quote("created_at") + " DESC, " + order
	}
	return order
}

func scanTargets(v []any) []any {
	ptrs := make([]any, len(v))
	for i := range v {
		ptrs[i] = &v[i]
	}
	return ptrs
}

// displayName falls back to the local part of the email when the user has
// no name on record.
func displayName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.DateOnly)
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/pet-buddy/internal/apperror"
)

// Querier is the statement surface shared by *sql.DB, *sql.Conn and *sql.Tx.
// Repositories accept it so that a whole request can run on one pooled
// connection or inside one transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options describes how to reach the database and how to size the pool.
type Options struct {
	Dialect Dialect
	DSN     string // used as-is when set
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the configured backend and verifies the connection.
func Open(opts Options) (*sql.DB, error) {
	dsn := opts.DSN
	if dsn == "" {
		dsn = buildDSN(opts)
	}

	db, err := sql.Open(opts.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := opts.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = maxOpen
	}
	lifetime := opts.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func buildDSN(opts Options) string {
	switch opts.Dialect {
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			Host:     opts.Host + ":" + opts.Port,
			Path:     "/" + opts.Name,
			RawQuery: "sslmode=disable",
		}
		if opts.Pass != "" {
			u.User = url.UserPassword(opts.User, opts.Pass)
		} else {
			u.User = url.User(opts.User)
		}
		return u.String()
	case SQLite:
		name := opts.Name
		if name == "" {
			name = "petbuddy.db"
		}
		// foreign_keys is off by default in SQLite.
		sep := "?"
		if strings.Contains(name, "?") {
			sep = "&"
		}
		return name + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		auth := opts.User
		if opts.Pass != "" {
			auth = fmt.Sprintf("%s:%s", opts.User, opts.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent.
		// clientFoundRows makes RowsAffected count matched rows, as the other
		// drivers do, so a status update to the same value still reports a hit.
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
			auth, opts.Host, opts.Port, opts.Name)
	}
}

// WithConn runs fn on a single pooled connection and always returns the
// connection to the pool, whatever fn returns. Failing to acquire a
// connection is reported as apperror.ErrUnavailable.
func WithConn(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return apperror.Unavailable(err)
	}
	defer conn.Close()
	return fn(conn)
}

// WithTx runs fn inside a transaction on conn. The transaction is committed
// when fn returns nil and rolled back otherwise.
func WithTx(ctx context.Context, conn *sql.Conn, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.FromDB(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.FromDB(err)
	}
	return nil
}

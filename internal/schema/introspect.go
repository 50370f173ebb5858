// Package schema discovers the live shape of the tables the booking engine
// writes to. Two schema generations are deployed side by side, so column
// names are never assumed: they are read from the database once per request
// and matched against a closed table of accepted variants.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
)

// Column is one physical column as reported by the database.
type Column struct {
	Name string
	// Generated is true when the database assigns the value itself
	// (auto_increment, serial/identity, SQLite rowid alias).
	Generated bool
	// Numeric is true for integer and decimal columns. MySQL coerces a text
	// argument compared against such a column to its leading digits, so
	// callers must not match non-numeric ids against it.
	Numeric bool
}

// ColumnSet holds the columns of one table keyed by name.
type ColumnSet map[string]Column

// Has reports whether the column exists.
func (s ColumnSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Generated reports whether the column exists and is filled by the database.
func (s ColumnSet) Generated(name string) bool {
	return s[name].Generated
}

// Numeric reports whether the column exists and holds numbers.
func (s ColumnSet) Numeric(name string) bool {
	return s[name].Numeric
}

// numericType classifies a declared column type. SQLite declarations are
// free text, so the INT affinity rule applies to every dialect.
func numericType(typ string) bool {
	t := strings.ToLower(strings.TrimSpace(typ))
	if strings.Contains(t, "int") {
		return true
	}
	for _, p := range []string{"decimal", "numeric", "serial", "real", "double", "float"} {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// Pick returns the first candidate present in the set.
func (s ColumnSet) Pick(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if s.Has(c) {
			return c, true
		}
	}
	return "", false
}

// Names returns the column names in lexical order.
func (s ColumnSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Introspector reads column metadata for a dialect.
type Introspector struct {
	dialect database.Dialect
}

func NewIntrospector(d database.Dialect) *Introspector {
	return &Introspector{dialect: d}
}

func (i *Introspector) Dialect() database.Dialect { return i.dialect }

// Columns returns the columns of table. A table with no reported columns
// does not exist, which is a deployment defect: the error wraps
// apperror.ErrSchemaMissing and must not be retried.
func (i *Introspector) Columns(ctx context.Context, q database.Querier, table string) (ColumnSet, error) {
	var (
		set ColumnSet
		err error
	)
	switch i.dialect {
	case database.Postgres:
		set, err = i.postgresColumns(ctx, q, table)
	case database.SQLite:
		set, err = i.sqliteColumns(ctx, q, table)
	default:
		set, err = i.mysqlColumns(ctx, q, table)
	}
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, apperror.FromDB(err))
	}
	if len(set) == 0 {
		return nil, apperror.SchemaMissing(table)
	}
	return set, nil
}

func (i *Introspector) mysqlColumns(ctx context.Context, q database.Querier, table string) (ColumnSet, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT COLUMN_NAME, EXTRA, DATA_TYPE FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := ColumnSet{}
	for rows.Next() {
		var name, extra, typ string
		if err := rows.Scan(&name, &extra, &typ); err != nil {
			return nil, err
		}
		set[name] = Column{
			Name:      name,
			Generated: strings.Contains(strings.ToLower(extra), "auto_increment"),
			Numeric:   numericType(typ),
		}
	}
	return set, rows.Err()
}

func (i *Introspector) postgresColumns(ctx context.Context, q database.Querier, table string) (ColumnSet, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT column_name, COALESCE(column_default, ''), COALESCE(is_identity, 'NO'), data_type
		 FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := ColumnSet{}
	for rows.Next() {
		var name, def, identity, typ string
		if err := rows.Scan(&name, &def, &identity, &typ); err != nil {
			return nil, err
		}
		generated := strings.HasPrefix(def, "nextval(") || strings.EqualFold(identity, "YES")
		set[name] = Column{Name: name, Generated: generated, Numeric: numericType(typ)}
	}
	return set, rows.Err()
}

func (i *Introspector) sqliteColumns(ctx context.Context, q database.Querier, table string) (ColumnSet, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, type, pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pragmaCol struct {
		name, typ string
		pk        int
	}
	var cols []pragmaCol
	pkCount := 0
	for rows.Next() {
		var c pragmaCol
		if err := rows.Scan(&c.name, &c.typ, &c.pk); err != nil {
			return nil, err
		}
		if c.pk > 0 {
			pkCount++
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	set := make(ColumnSet, len(cols))
	for _, c := range cols {
		// Only a lone INTEGER PRIMARY KEY aliases the rowid.
		generated := c.pk > 0 && pkCount == 1 && strings.EqualFold(c.typ, "INTEGER")
		set[c.name] = Column{Name: c.name, Generated: generated, Numeric: numericType(c.typ)}
	}
	return set, nil
}

// Snapshot is the set of tables read for one request. Every decision in the
// request is made against the same snapshot.
type Snapshot map[string]ColumnSet

// Of returns the columns captured for table, or nil when it was not loaded.
func (s Snapshot) Of(table string) ColumnSet { return s[table] }

// Snapshot introspects each table exactly once.
func (i *Introspector) Snapshot(ctx context.Context, q database.Querier, tables ...string) (Snapshot, error) {
	snap := make(Snapshot, len(tables))
	for _, t := range tables {
		if _, done := snap[t]; done {
			continue
		}
		cols, err := i.Columns(ctx, q, t)
		if err != nil {
			return nil, err
		}
		snap[t] = cols
	}
	return snap, nil
}

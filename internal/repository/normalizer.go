package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/metrics"
	"github.com/iliyamo/pet-buddy/internal/schema"
)

// KeySpace selects which key column of an entity a reference is expressed in.
type KeySpace int

const (
	// KeyCanonical is the numeric legacy key: users.user_id, dogs.dog_id.
	KeyCanonical KeySpace = iota
	// KeyAlternate is the generic key: users.id, dogs.id.
	KeyAlternate
)

func (k KeySpace) String() string {
	if k == KeyCanonical {
		return "canonical"
	}
	return "alternate"
}

// Entity describes a referenced table and its two possible key columns.
type Entity struct {
	Table     string
	Canonical string
	Alternate string
}

var (
	Users = Entity{Table: "users", Canonical: "user_id", Alternate: "id"}
	Dogs  = Entity{Table: "dogs", Canonical: "dog_id", Alternate: "id"}
)

func (e Entity) column(k KeySpace) string {
	if k == KeyCanonical {
		return e.Canonical
	}
	return e.Alternate
}

// KeyColumn returns the column of e that holds keys in space k. When the
// table lacks it, the other key column stands in.
func (e Entity) KeyColumn(cols schema.ColumnSet, k KeySpace) (string, bool) {
	other := KeyCanonical
	if k == KeyCanonical {
		other = KeyAlternate
	}
	return cols.Pick(e.column(k), e.column(other))
}

// UserKeySpace maps a foreign key column that points at users to the key
// space it stores: a column named like owner_user_id holds users.user_id,
// anything else (owner_id, sitter_id) holds users.id.
func UserKeySpace(fkColumn string) KeySpace {
	if strings.HasSuffix(fkColumn, "user_id") {
		return KeyCanonical
	}
	return KeyAlternate
}

// DogKeySpace is UserKeySpace for dog references on bookings: dog_id holds
// dogs.dog_id, dogId holds dogs.id.
func DogKeySpace(fkColumn string) KeySpace {
	if fkColumn == "dog_id" {
		return KeyCanonical
	}
	return KeyAlternate
}

// Normalizer resolves caller-supplied identifiers into the key space a
// foreign key column expects. Callers may hold ids minted under either schema
// generation.
type Normalizer struct {
	dialect database.Dialect
}

func NewNormalizer(d database.Dialect) *Normalizer {
	return &Normalizer{dialect: d}
}

// Resolve returns the value of raw's row in the target key space.
//
// A digits-only literal aimed at the canonical key is accepted without a
// lookup. Otherwise one query matches raw against every key column the table
// has (OR, LIMIT 1) and returns the target column, or the present one when
// the target is absent. Numeric key columns only take part when raw is a
// digits-only literal. ErrUnresolved means no row matched.
func (n *Normalizer) Resolve(ctx context.Context, q database.Querier, raw string, e Entity, target KeySpace, cols schema.ColumnSet) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnresolved
	}

	if target == KeyCanonical && cols.Has(e.Canonical) && isDigits(raw) {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			metrics.ReferenceResolutionsTotal.WithLabelValues(e.Table, "fast").Inc()
			return v, nil
		}
	}

	lk, err := n.lookup(raw, e, target, cols)
	if err != nil {
		return nil, err
	}
	if len(lk.keys) == 0 {
		metrics.ReferenceResolutionsTotal.WithLabelValues(e.Table, "miss").Inc()
		return nil, ErrUnresolved
	}

	dest := make([]any, len(lk.keys))
	ptrs := make([]any, len(lk.keys))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	err = q.QueryRowContext(ctx, n.dialect.Rebind(lk.query), lk.args...).Scan(ptrs...)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.ReferenceResolutionsTotal.WithLabelValues(e.Table, "miss").Inc()
		return nil, ErrUnresolved
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", e.Table, apperror.FromDB(err))
	}

	v := keyValue(dest[lk.want])
	if v == nil {
		// The target column exists but is NULL on this row; the other key
		// still identifies it.
		for i := range dest {
			if kv := keyValue(dest[i]); kv != nil {
				v = kv
				break
			}
		}
	}
	if v == nil {
		metrics.ReferenceResolutionsTotal.WithLabelValues(e.Table, "miss").Inc()
		return nil, ErrUnresolved
	}
	metrics.ReferenceResolutionsTotal.WithLabelValues(e.Table, "lookup").Inc()
	return v, nil
}

// keyLookup is the rendered OR query of Resolve. keys is empty when raw
// cannot match any key column, in which case no query is needed.
type keyLookup struct {
	query string
	args  []any
	keys  []string
	want  int
}

func (n *Normalizer) lookup(raw string, e Entity, target KeySpace, cols schema.ColumnSet) (keyLookup, error) {
	var present, keys []string
	for _, c := range []string{e.Canonical, e.Alternate} {
		if !cols.Has(c) {
			continue
		}
		present = append(present, c)
		if matchable(cols, c, raw) {
			keys = append(keys, c)
		}
	}
	if len(present) == 0 {
		return keyLookup{}, apperror.SchemaMissing(e.Table, e.Canonical, e.Alternate)
	}
	if len(keys) == 0 {
		return keyLookup{}, nil
	}

	// The target column is read back even when raw cannot be compared with it.
	want, _ := e.KeyColumn(cols, target)
	selects := keys
	wantIdx := slices.Index(keys, want)
	if wantIdx < 0 {
		selects = append(slices.Clone(keys), want)
		wantIdx = len(selects) - 1
	}

	quoted := make([]string, len(selects))
	for i, c := range selects {
		quoted[i] = n.dialect.Quote(c)
	}
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = n.dialect.KeyMatch(n.dialect.Quote(k))
		args[i] = raw
	}
	return keyLookup{
		query: fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
			strings.Join(quoted, ", "), n.dialect.Quote(e.Table), strings.Join(conds, " OR ")),
		args: args,
		keys: selects,
		want: wantIdx,
	}, nil
}

// matchable reports whether raw may be compared with column col. MySQL
// coerces '3f2a...' to 3 against an integer column, so only digits-only
// literals are compared with numeric columns.
func matchable(cols schema.ColumnSet, col, raw string) bool {
	return !cols.Numeric(col) || isDigits(raw)
}

// isDigits reports whether s is a non-empty run of ASCII digits. Signs,
// spaces and exponents are not ids.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// keyValue turns a scanned key into a stable Go value.
func keyValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	default:
		return t
	}
}

// formatKey renders a resolved key for responses and events.
func formatKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

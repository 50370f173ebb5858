package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/schema"
)

// newUUID mints synthetic keys for tables whose key is not generated.
var newUUID = uuid.NewString

// execInsert runs a rendered plan and returns the new row's key: presetID
// when the caller supplied one, otherwise the key generated by the database.
func execInsert(ctx context.Context, q database.Querier, d database.Dialect, plan *schema.InsertPlan, presetID, what string) (string, error) {
	query, args, err := plan.Render(d)
	if err != nil {
		return "", err
	}

	if plan.ReadsBack(d) {
		var gen any
		if err := q.QueryRowContext(ctx, query, args...).Scan(&gen); err != nil {
			return "", fmt.Errorf("insert %s: %w", what, apperror.FromDB(err))
		}
		return formatKey(keyValue(gen)), nil
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", what, apperror.FromDB(err))
	}
	if presetID != "" {
		return presetID, nil
	}
	n, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", what, err)
	}
	return strconv.FormatInt(n, 10), nil
}

// keyPlan sets a synthetic UUID key when the table expects callers to supply
// one, or asks for the generated key to be read back. It returns the UUID it
// set, if any.
func keyPlan(plan *schema.InsertPlan, cols schema.ColumnSet, pk string, newID func() string) string {
	if pk == "" {
		return ""
	}
	if cols.Generated(pk) {
		plan.Returning(pk)
		return ""
	}
	id := newID()
	plan.Set(pk, id)
	return id
}

// colOrNull renders alias.col for the first present candidate, or NULL so
// the select list keeps its shape when the column is absent.
func colOrNull(d database.Dialect, cols schema.ColumnSet, alias string, candidates ...string) string {
	if c, ok := cols.Pick(candidates...); ok {
		return alias + "." + d.Quote(c)
	}
	return "NULL"
}

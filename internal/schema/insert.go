package schema

import (
	"strings"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/database"
)

// InsertPlan collects column/value pairs for one INSERT, keeping only the
// columns that exist in the live table. Nothing touches the database until
// the rendered statement is executed by the caller.
type InsertPlan struct {
	table     string
	live      ColumnSet
	cols      []string
	vals      []any
	returning string
	err       error
}

// NewInsert starts a plan for table against its live columns.
func NewInsert(table string, live ColumnSet) *InsertPlan {
	return &InsertPlan{table: table, live: live}
}

// Set adds col when the table has it and silently skips it otherwise.
func (p *InsertPlan) Set(col string, v any) *InsertPlan {
	if !p.live.Has(col) {
		return p
	}
	for i, c := range p.cols {
		if c == col {
			p.vals[i] = v
			return p
		}
	}
	p.cols = append(p.cols, col)
	p.vals = append(p.vals, v)
	return p
}

// SetLogical adds the first present variant of l, if any.
func (p *InsertPlan) SetLogical(l Logical, v any) *InsertPlan {
	if col, ok := p.live.Resolve(l); ok {
		return p.Set(col, v)
	}
	return p
}

// Require adds col and records a SchemaMissing error when the table lacks it.
func (p *InsertPlan) Require(col string, v any) *InsertPlan {
	if !p.live.Has(col) {
		if p.err == nil {
			p.err = apperror.SchemaMissing(p.table, col)
		}
		return p
	}
	return p.Set(col, v)
}

// Returning asks for a generated column to be read back where the dialect
// needs RETURNING for that.
func (p *InsertPlan) Returning(col string) *InsertPlan {
	if p.live.Has(col) {
		p.returning = col
	}
	return p
}

// Columns lists the planned columns in insertion order.
func (p *InsertPlan) Columns() []string {
	out := make([]string, len(p.cols))
	copy(out, p.cols)
	return out
}

// Value returns the planned value for col.
func (p *InsertPlan) Value(col string) (any, bool) {
	for i, c := range p.cols {
		if c == col {
			return p.vals[i], true
		}
	}
	return nil, false
}

// Err reports the first missing required column.
func (p *InsertPlan) Err() error { return p.err }

// Render emits one parameterized statement for the dialect.
func (p *InsertPlan) Render(d database.Dialect) (string, []any, error) {
	if p.err != nil {
		return "", nil, p.err
	}
	if len(p.cols) == 0 {
		return "", nil, apperror.SchemaMissing(p.table)
	}

	quoted := make([]string, len(p.cols))
	marks := make([]string, len(p.cols))
	for i, c := range p.cols {
		quoted[i] = d.Quote(c)
		marks[i] = "?"
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.Quote(p.table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(marks, ", "))
	b.WriteString(")")
	if p.returning != "" && d.SupportsReturning() {
		b.WriteString(" RETURNING ")
		b.WriteString(d.Quote(p.returning))
	}

	args := make([]any, len(p.vals))
	copy(args, p.vals)
	return d.Rebind(b.String()), args, nil
}

// ReadsBack reports whether Render appended a RETURNING clause for d.
func (p *InsertPlan) ReadsBack(d database.Dialect) bool {
	return p.returning != "" && d.SupportsReturning()
}

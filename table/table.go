// Package table implements the relational operators the interpreter
// composes to run statements: filter, project, inner join, row append,
// conditional update, and conditional delete.
package table

import (
	"fmt"

	"github.com/minisqldb/minisqldb/expr"
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/schema"
)

// Table is a named, schema-conforming collection of rows. It carries no
// primary key and allows duplicate rows. Joined marks whether the table
// is itself the result of a prior inner join, so a further join knows
// not to re-prefix its columns (see InnerJoin).
type Table struct {
	Name   string
	Schema schema.Schema
	Rows   []schema.Row
	Joined bool
}

// New builds an empty table over a schema.
func New(name string, s schema.Schema) *Table {
	return &Table{Name: name, Schema: s}
}

// Clone makes an independent copy of t: same name, schema, and Joined
// flag, but every row's cell map is copied rather than shared, so later
// mutation of t (Append/UpdateWhere/DeleteWhere) never retroactively
// changes the clone. Callers that hand a table to a long-lived buffer
// while the source table keeps living (e.g. a SELECT's output) should
// clone first.
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Schema)
	out.Joined = t.Joined
	out.Rows = make([]schema.Row, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// Append adds a row, requiring its schema to equal the table's (same
// column count and type at each position).
func (t *Table) Append(row schema.Row) error {
	if !row.Schema.Equal(t.Schema) {
		return minierr.New(minierr.Schema, "row schema does not match table %q schema", t.Name)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Filter returns a new table with the same schema and only the rows
// satisfying the predicate, preserving order.
func (t *Table) Filter(predicate *expr.Expr) (*Table, error) {
	out := New(t.Name, t.Schema)
	out.Joined = t.Joined
	for _, row := range t.Rows {
		ok, err := predicate.Truthy(row)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Project returns a new table whose schema is the given column list
// (types copied from the source schema) and whose rows carry only those
// columns, preserving row order. Unknown names raise a SCHEMA error.
func (t *Table) Project(columns []string) (*Table, error) {
	cols := make([]schema.Column, 0, len(columns))
	for _, name := range columns {
		c, ok := t.Schema.Lookup(name)
		if !ok {
			return nil, minierr.New(minierr.Schema, "unknown column %q in projection", name)
		}
		cols = append(cols, c)
	}
	newSchema, err := schema.New(cols...)
	if err != nil {
		return nil, err
	}

	out := New(t.Name, newSchema)
	for _, row := range t.Rows {
		newRow := schema.NewRow(newSchema)
		for _, name := range columns {
			v, _ := row.Get(name)
			newRow.Set(name, v)
		}
		out.Rows = append(out.Rows, newRow)
	}
	return out, nil
}

// DeleteWhere removes, in place, every row satisfying the predicate.
// Surviving rows keep their relative order.
func (t *Table) DeleteWhere(predicate *expr.Expr) error {
	kept := t.Rows[:0:0]
	for _, row := range t.Rows {
		del, err := predicate.Truthy(row)
		if err != nil {
			return err
		}
		if !del {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
	return nil
}

// Assignment is a single "column = expression" pair from a SET clause.
type Assignment struct {
	Column string
	Value  *expr.Expr
}

// UpdateWhere applies assignments, in list order, to every row
// satisfying the predicate. Each assignment evaluates its expression
// against the row as it stands at that point in the list, so later
// assignments in the same row see the effect of earlier ones; across
// rows, every row is evaluated against its own pre-update values at
// predicate-check time.
func (t *Table) UpdateWhere(predicate *expr.Expr, assignments []Assignment) error {
	for i, row := range t.Rows {
		ok, err := predicate.Truthy(row)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, a := range assignments {
			v, err := a.Value.Evaluate(row)
			if err != nil {
				return err
			}
			row.Set(a.Column, v)
		}
		t.Rows[i] = row
	}
	return nil
}

// InnerJoin computes the Cartesian product of t and other. The result
// schema concatenates left columns then right columns, in order. If a
// side's Joined flag is false its columns are renamed "<name>.<col>";
// if already true (the side is itself a prior join result) its column
// names are kept verbatim, so a three-way join doesn't double-prefix.
// The resulting table's Joined flag is always true. Filtering to an ON
// predicate is the caller's job via a subsequent Filter.
func (t *Table) InnerJoin(other *Table) (*Table, error) {
	leftCols := prefixedColumns(t.Name, t.Schema, t.Joined)
	rightCols := prefixedColumns(other.Name, other.Schema, other.Joined)

	allCols := make([]schema.Column, 0, len(leftCols)+len(rightCols))
	allCols = append(allCols, leftCols...)
	allCols = append(allCols, rightCols...)
	joinedSchema, err := schema.New(allCols...)
	if err != nil {
		return nil, err
	}

	result := New(t.Name+"_"+other.Name, joinedSchema)
	result.Joined = true

	leftNames := t.Schema.Columns()
	rightNames := other.Schema.Columns()

	for _, lrow := range t.Rows {
		for _, rrow := range other.Rows {
			newRow := schema.NewRow(joinedSchema)
			for i, c := range leftNames {
				v, _ := lrow.Get(c.Name)
				newRow.Set(leftCols[i].Name, v)
			}
			for i, c := range rightNames {
				v, _ := rrow.Get(c.Name)
				newRow.Set(rightCols[i].Name, v)
			}
			result.Rows = append(result.Rows, newRow)
		}
	}
	return result, nil
}

func prefixedColumns(tableName string, s schema.Schema, joined bool) []schema.Column {
	cols := s.Columns()
	if joined {
		return cols
	}
	out := make([]schema.Column, len(cols))
	for i, c := range cols {
		out[i] = schema.Column{Name: fmt.Sprintf("%s.%s", tableName, c.Name), Type: c.Type}
	}
	return out
}

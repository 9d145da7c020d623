// Package schema defines the column contract (Schema) and the
// schema-conforming value container (Row) that every Table, projection,
// and join result is built from.
package schema

import (
	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/namedmap"
)

// Column is a single (name, type) pair.
type Column struct {
	Name string
	Type cell.Type
}

// Schema is an ordered sequence of columns with unique names. Column
// order determines the order cells serialize in. A Schema is immutable
// after construction (its slice is never mutated in place) but
// assignable whole, e.g. when a Row or Table takes on a new Schema.
type Schema struct {
	columns []Column
}

// New builds a Schema from columns, rejecting duplicate names.
func New(columns ...Column) (Schema, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.Name] {
			return Schema{}, minierr.New(minierr.Schema, "duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
	}
	out := make([]Column, len(columns))
	copy(out, columns)
	return Schema{columns: out}, nil
}

// Columns returns the schema's columns in order. The returned slice is
// a copy.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Len reports the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// ColumnAt returns the column at a position.
func (s Schema) ColumnAt(i int) Column { return s.columns[i] }

// Lookup finds a column by name. Lookup is O(n); schemas are small by
// design.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Equal reports whether two schemas have the same columns, in the same
// order, with the same types.
func (s Schema) Equal(other Schema) bool {
	if len(s.columns) != len(other.columns) {
		return false
	}
	for i, c := range s.columns {
		if c != other.columns[i] {
			return false
		}
	}
	return true
}

// Row pairs a Schema with an ordered name->Cell map whose keys equal the
// schema's column names, in the same order.
type Row struct {
	Schema Schema
	Cells  *namedmap.Map[cell.Cell]
}

// NewRow builds a Row with every cell defaulted to its column's zero
// value (0, 0.0, or "").
func NewRow(s Schema) Row {
	cells := namedmap.New[cell.Cell]()
	for _, c := range s.Columns() {
		cells.Set(c.Name, cell.Zero(c.Type))
	}
	return Row{Schema: s, Cells: cells}
}

// Get returns the cell for a column name.
func (r Row) Get(name string) (cell.Cell, bool) {
	return r.Cells.Get(name)
}

// Set assigns the cell for a column name.
func (r Row) Set(name string, v cell.Cell) {
	r.Cells.Set(name, v)
}

// Clone makes a row with an independent copy of the cell map (the
// Schema value itself is already immutable and can be shared).
func (r Row) Clone() Row {
	return Row{Schema: r.Schema, Cells: r.Cells.Clone()}
}

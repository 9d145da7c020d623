// Package cell implements the engine's single scalar value type: a
// tagged union over INTEGER, FLOAT, and TEXT, with the conversion,
// ordering, and truthiness rules the rest of the engine relies on.
package cell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minisqldb/minisqldb/minierr"
)

// Type names one of the three supported variants.
type Type string

const (
	Integer Type = "INTEGER"
	Float   Type = "FLOAT"
	Text    Type = "TEXT"
)

// ParseType maps a keyword/header token to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case string(Integer):
		return Integer, nil
	case string(Float):
		return Float, nil
	case string(Text):
		return Text, nil
	default:
		return "", minierr.New(minierr.Parse, "unknown column type %q", s)
	}
}

// Cell is a discriminated union over the three variants. The zero value
// is not meaningful on its own; construct with FromInt/FromFloat/FromText
// or Parse. The variant tag is never mutated in place: retyping a Cell
// means building a new one.
type Cell struct {
	typ  Type
	i    int64
	f    float64
	text string
}

// FromInt builds an INTEGER cell.
func FromInt(v int64) Cell { return Cell{typ: Integer, i: v} }

// FromFloat builds a FLOAT cell.
func FromFloat(v float64) Cell { return Cell{typ: Float, f: v} }

// FromText builds a TEXT cell.
func FromText(v string) Cell { return Cell{typ: Text, text: v} }

// Zero returns the default cell for a declared type (0, 0.0, or "").
func Zero(t Type) Cell {
	switch t {
	case Integer:
		return FromInt(0)
	case Float:
		return FromFloat(0)
	default:
		return FromText("")
	}
}

// Parse constructs a Cell of the declared type from literal text.
// Conversion failures carry the offending text and target type.
func Parse(t Type, literal string) (Cell, error) {
	switch t {
	case Integer:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return Cell{}, minierr.Wrap(minierr.Type, err, "cannot convert %q to INTEGER", literal)
		}
		return FromInt(n), nil
	case Float:
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return Cell{}, minierr.Wrap(minierr.Type, err, "cannot convert %q to FLOAT", literal)
		}
		return FromFloat(f), nil
	case Text:
		return FromText(literal), nil
	default:
		return Cell{}, minierr.New(minierr.Type, "unknown target type %q for literal %q", t, literal)
	}
}

// InferCell infers the type of a literal the way the tokenizer does: an
// integer if it parses with no '.', else a float, else text.
func InferCell(literal string) Cell {
	if !strings.Contains(literal, ".") {
		if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return FromInt(n)
		}
	}
	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		return FromFloat(f)
	}
	return FromText(literal)
}

// Type reports the cell's variant.
func (c Cell) Type() Type { return c.typ }

// Int converts the cell to an integer: truncation toward zero for
// FLOAT and parsing for TEXT.
func (c Cell) Int() (int64, error) {
	switch c.typ {
	case Integer:
		return c.i, nil
	case Float:
		return int64(c.f), nil
	case Text:
		n, err := strconv.ParseInt(c.text, 10, 64)
		if err != nil {
			return 0, minierr.Wrap(minierr.Type, err, "cannot convert text %q to INTEGER", c.text)
		}
		return n, nil
	}
	return 0, minierr.New(minierr.Type, "unknown cell type")
}

// Float converts the cell to a float.
func (c Cell) Float() (float64, error) {
	switch c.typ {
	case Integer:
		return float64(c.i), nil
	case Float:
		return c.f, nil
	case Text:
		f, err := strconv.ParseFloat(c.text, 64)
		if err != nil {
			return 0, minierr.Wrap(minierr.Type, err, "cannot convert text %q to FLOAT", c.text)
		}
		return f, nil
	}
	return 0, minierr.New(minierr.Type, "unknown cell type")
}

// Text renders the cell's on-wire text projection: integers as decimal
// with no fractional part, floats fixed to exactly two fractional
// digits, text verbatim.
func (c Cell) Text() string {
	switch c.typ {
	case Integer:
		return strconv.FormatInt(c.i, 10)
	case Float:
		return fmt.Sprintf("%.2f", c.f)
	default:
		return c.text
	}
}

// Truthy reports whether the cell counts as true: nonzero int, nonzero
// float, or non-empty text.
func (c Cell) Truthy() bool {
	switch c.typ {
	case Integer:
		return c.i != 0
	case Float:
		return c.f != 0
	default:
		return c.text != ""
	}
}

// textProjection is the string used for comparisons involving a TEXT
// operand: the cell's own Text() rendering.
func (c Cell) textProjection() string { return c.Text() }

// Compare returns -1, 0, or 1. If either operand is TEXT, the comparison
// is lexicographic on the text projection; otherwise integer-vs-integer
// compares as integers, and any other pairing compares as doubles.
func Compare(a, b Cell) (int, error) {
	if a.typ == Text || b.typ == Text {
		as, bs := a.textProjection(), b.textProjection()
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.typ == Integer && b.typ == Integer {
		switch {
		case a.i < b.i:
			return -1, nil
		case a.i > b.i:
			return 1, nil
		default:
			return 0, nil
		}
	}
	af, err := a.Float()
	if err != nil {
		return 0, err
	}
	bf, err := b.Float()
	if err != nil {
		return 0, err
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equal reports whether a and b compare equal under Compare's rules.
func Equal(a, b Cell) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// Package expr implements the expression tree evaluated against a Row:
// column references, literals, arithmetic, comparison, and boolean
// operators.
package expr

import (
	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/schema"
)

// Op names a binary or unary operator.
type Op string

const (
	Add Op = "+"
	Sub Op = "-"
	Mul Op = "*"
	Div Op = "/"
	Lt  Op = "<"
	Gt  Op = ">"
	Eq  Op = "="
	And Op = "AND"
	Or  Op = "OR"
	Not Op = "NOT"
)

// kind tags which node shape an Expr holds.
type kind int

const (
	kindColumnRef kind = iota
	kindLiteral
	kindBinary
	kindUnary
)

// Expr is a node in the expression tree. Nodes are immutable and may be
// shared across statements; identity is irrelevant, only shape matters.
type Expr struct {
	kind    kind
	name    string // kindColumnRef
	value   cell.Cell
	op      Op
	left    *Expr
	right   *Expr
	operand *Expr
}

// Column builds a column-reference node.
func Column(name string) *Expr {
	return &Expr{kind: kindColumnRef, name: name}
}

// Literal builds a constant-value node.
func Literal(v cell.Cell) *Expr {
	return &Expr{kind: kindLiteral, value: v}
}

// Binary builds a binary-operator node.
func Binary(op Op, left, right *Expr) *Expr {
	return &Expr{kind: kindBinary, op: op, left: left, right: right}
}

// Unary builds a unary-operator node (only NOT is supported).
func Unary(op Op, operand *Expr) *Expr {
	return &Expr{kind: kindUnary, op: op, operand: operand}
}

// Evaluate computes the node's value against a row.
func (e *Expr) Evaluate(row schema.Row) (cell.Cell, error) {
	switch e.kind {
	case kindColumnRef:
		v, ok := row.Get(e.name)
		if !ok {
			return cell.Cell{}, minierr.New(minierr.Schema, "unknown column %q", e.name)
		}
		return v, nil
	case kindLiteral:
		return e.value, nil
	case kindUnary:
		return e.evalUnary(row)
	case kindBinary:
		return e.evalBinary(row)
	default:
		return cell.Cell{}, minierr.New(minierr.Parse, "unknown expression node")
	}
}

// Truthy evaluates the node and reports its truthiness.
func (e *Expr) Truthy(row schema.Row) (bool, error) {
	v, err := e.Evaluate(row)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func (e *Expr) evalUnary(row schema.Row) (cell.Cell, error) {
	switch e.op {
	case Not:
		t, err := e.operand.Truthy(row)
		if err != nil {
			return cell.Cell{}, err
		}
		if t {
			return cell.FromInt(0), nil
		}
		return cell.FromInt(1), nil
	default:
		return cell.Cell{}, minierr.New(minierr.Parse, "unknown unary operator %q", e.op)
	}
}

func (e *Expr) evalBinary(row schema.Row) (cell.Cell, error) {
	switch e.op {
	case And:
		l, err := e.left.Truthy(row)
		if err != nil {
			return cell.Cell{}, err
		}
		if !l {
			return cell.FromInt(0), nil
		}
		r, err := e.right.Truthy(row)
		if err != nil {
			return cell.Cell{}, err
		}
		return boolCell(r), nil
	case Or:
		l, err := e.left.Truthy(row)
		if err != nil {
			return cell.Cell{}, err
		}
		if l {
			return cell.FromInt(1), nil
		}
		r, err := e.right.Truthy(row)
		if err != nil {
			return cell.Cell{}, err
		}
		return boolCell(r), nil
	}

	l, err := e.left.Evaluate(row)
	if err != nil {
		return cell.Cell{}, err
	}
	r, err := e.right.Evaluate(row)
	if err != nil {
		return cell.Cell{}, err
	}

	switch e.op {
	case Add:
		return arith(l, r, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case Sub:
		return arith(l, r, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case Mul:
		return arith(l, r, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case Div:
		return divide(l, r)
	case Lt:
		c, err := cell.Compare(l, r)
		if err != nil {
			return cell.Cell{}, err
		}
		return boolCell(c < 0), nil
	case Gt:
		c, err := cell.Compare(l, r)
		if err != nil {
			return cell.Cell{}, err
		}
		return boolCell(c > 0), nil
	case Eq:
		eq, err := cell.Equal(l, r)
		if err != nil {
			return cell.Cell{}, err
		}
		return boolCell(eq), nil
	default:
		return cell.Cell{}, minierr.New(minierr.Parse, "unknown binary operator %q", e.op)
	}
}

func boolCell(b bool) cell.Cell {
	if b {
		return cell.FromInt(1)
	}
	return cell.FromInt(0)
}

// arith implements the INT-INT-stays-INT, otherwise-promote-to-FLOAT
// rule shared by +, -, and *.
func arith(l, r cell.Cell, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (cell.Cell, error) {
	if l.Type() == cell.Integer && r.Type() == cell.Integer {
		li, _ := l.Int()
		ri, _ := r.Int()
		return cell.FromInt(intOp(li, ri)), nil
	}
	lf, err := l.Float()
	if err != nil {
		return cell.Cell{}, err
	}
	rf, err := r.Float()
	if err != nil {
		return cell.Cell{}, err
	}
	return cell.FromFloat(floatOp(lf, rf)), nil
}

// divide implements division: INTEGER / INTEGER stays INTEGER only when
// the divisor is nonzero and divides the dividend exactly; otherwise the
// result is FLOAT. Division by zero always raises.
func divide(l, r cell.Cell) (cell.Cell, error) {
	if l.Type() == cell.Integer && r.Type() == cell.Integer {
		li, _ := l.Int()
		ri, _ := r.Int()
		if ri == 0 {
			return cell.Cell{}, minierr.New(minierr.Arith, "division by zero")
		}
		if li%ri == 0 {
			return cell.FromInt(li / ri), nil
		}
		return cell.FromFloat(float64(li) / float64(ri)), nil
	}
	lf, err := l.Float()
	if err != nil {
		return cell.Cell{}, err
	}
	rf, err := r.Float()
	if err != nil {
		return cell.Cell{}, err
	}
	if rf == 0 {
		return cell.Cell{}, minierr.New(minierr.Arith, "division by zero")
	}
	return cell.FromFloat(lf / rf), nil
}

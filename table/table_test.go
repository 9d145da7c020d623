package table

import (
	"testing"

	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/expr"
	"github.com/minisqldb/minisqldb/schema"
	"github.com/stretchr/testify/assert"
)

func studentsTable(t *testing.T) *Table {
	t.Helper()
	s, err := schema.New(
		schema.Column{Name: "id", Type: cell.Integer},
		schema.Column{Name: "name", Type: cell.Text},
		schema.Column{Name: "score", Type: cell.Integer},
	)
	assert.NoError(t, err)
	tbl := New("students", s)

	r1 := schema.NewRow(s)
	r1.Set("id", cell.FromInt(1))
	r1.Set("name", cell.FromText("Alice"))
	r1.Set("score", cell.FromInt(95))
	assert.NoError(t, tbl.Append(r1))

	r2 := schema.NewRow(s)
	r2.Set("id", cell.FromInt(2))
	r2.Set("name", cell.FromText("Bob"))
	r2.Set("score", cell.FromInt(87))
	assert.NoError(t, tbl.Append(r2))

	return tbl
}

func TestCloneIsIndependentOfLaterMutation(t *testing.T) {
	tbl := studentsTable(t)
	snapshot := tbl.Clone()

	assert.NoError(t, tbl.UpdateWhere(trueCondition(t), []Assignment{
		{Column: "score", Value: expr.Literal(cell.FromInt(0))},
	}))
	assert.NoError(t, tbl.DeleteWhere(trueCondition(t)))

	assert.Len(t, snapshot.Rows, 2)
	v, _ := snapshot.Rows[0].Get("score")
	assert.Equal(t, "95", v.Text())
}

func trueCondition(t *testing.T) *expr.Expr {
	t.Helper()
	return expr.Literal(cell.FromInt(1))
}

func TestAppendRejectsSchemaMismatch(t *testing.T) {
	tbl := studentsTable(t)
	other, _ := schema.New(schema.Column{Name: "id", Type: cell.Text})
	err := tbl.Append(schema.NewRow(other))
	assert.Error(t, err)
}

func TestFilterPreservesOrderAndIsSubsequence(t *testing.T) {
	tbl := studentsTable(t)
	highScores, err := tbl.Filter(expr.Binary(expr.Gt, expr.Column("score"), expr.Literal(cell.FromInt(90))))
	assert.NoError(t, err)
	assert.Len(t, highScores.Rows, 1)
	name, _ := highScores.Rows[0].Get("name")
	assert.Equal(t, "Alice", name.Text())
}

func TestProjectKeepsOnlyNamedColumns(t *testing.T) {
	tbl := studentsTable(t)
	projected, err := tbl.Project([]string{"name"})
	assert.NoError(t, err)
	assert.Equal(t, 1, projected.Schema.Len())
	for i, row := range projected.Rows {
		orig, _ := tbl.Rows[i].Get("name")
		got, _ := row.Get("name")
		assert.Equal(t, orig.Text(), got.Text())
	}
}

func TestProjectUnknownColumnRaises(t *testing.T) {
	tbl := studentsTable(t)
	_, err := tbl.Project([]string{"nope"})
	assert.Error(t, err)
}

func TestDeleteWhereFalseIsNoop(t *testing.T) {
	tbl := studentsTable(t)
	err := tbl.DeleteWhere(expr.Literal(cell.FromInt(0)))
	assert.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)
}

func TestDeleteWhereRemovesMatching(t *testing.T) {
	tbl := studentsTable(t)
	err := tbl.DeleteWhere(expr.Binary(expr.Eq, expr.Column("id"), expr.Literal(cell.FromInt(1))))
	assert.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
	name, _ := tbl.Rows[0].Get("name")
	assert.Equal(t, "Bob", name.Text())
}

func TestUpdateWhereFalseIsNoop(t *testing.T) {
	tbl := studentsTable(t)
	err := tbl.UpdateWhere(expr.Literal(cell.FromInt(0)), []Assignment{
		{Column: "score", Value: expr.Literal(cell.FromInt(0))},
	})
	assert.NoError(t, err)
	score, _ := tbl.Rows[0].Get("score")
	assert.Equal(t, "95", score.Text())
}

func TestUpdateWhereAppliesAssignmentsLeftToRight(t *testing.T) {
	tbl := studentsTable(t)
	err := tbl.UpdateWhere(
		expr.Binary(expr.Eq, expr.Column("id"), expr.Literal(cell.FromInt(1))),
		[]Assignment{
			{Column: "score", Value: expr.Literal(cell.FromInt(10))},
			{Column: "name", Value: expr.Binary(expr.Add, expr.Column("score"), expr.Literal(cell.FromInt(0)))},
		},
	)
	assert.NoError(t, err)
	name, _ := tbl.Rows[0].Get("name")
	// the second assignment sees the first assignment's effect on this row
	assert.Equal(t, "10", name.Text())
}

func TestInnerJoinRowCountAndSchema(t *testing.T) {
	left := studentsTable(t)

	rs, _ := schema.New(schema.Column{Name: "user_id", Type: cell.Integer}, schema.Column{Name: "product", Type: cell.Text})
	right := New("orders", rs)
	r1 := schema.NewRow(rs)
	r1.Set("user_id", cell.FromInt(1))
	r1.Set("product", cell.FromText("Book"))
	assert.NoError(t, right.Append(r1))
	r2 := schema.NewRow(rs)
	r2.Set("user_id", cell.FromInt(1))
	r2.Set("product", cell.FromText("Pen"))
	assert.NoError(t, right.Append(r2))

	joined, err := left.InnerJoin(right)
	assert.NoError(t, err)
	assert.Len(t, joined.Rows, len(left.Rows)*len(right.Rows))
	assert.True(t, joined.Joined)

	_, ok := joined.Schema.Lookup("students.id")
	assert.True(t, ok)
	_, ok = joined.Schema.Lookup("orders.product")
	assert.True(t, ok)
}

func TestInnerJoinDoesNotDoublePrefixAlreadyJoinedTable(t *testing.T) {
	left := studentsTable(t)
	rs, _ := schema.New(schema.Column{Name: "user_id", Type: cell.Integer})
	right := New("orders", rs)
	row := schema.NewRow(rs)
	row.Set("user_id", cell.FromInt(1))
	assert.NoError(t, right.Append(row))

	firstJoin, err := left.InnerJoin(right)
	assert.NoError(t, err)

	thirdSchema, _ := schema.New(schema.Column{Name: "grade", Type: cell.Text})
	third := New("enrollments", thirdSchema)
	row2 := schema.NewRow(thirdSchema)
	row2.Set("grade", cell.FromText("A"))
	assert.NoError(t, third.Append(row2))

	secondJoin, err := firstJoin.InnerJoin(third)
	assert.NoError(t, err)

	_, ok := secondJoin.Schema.Lookup("students.id")
	assert.True(t, ok, "already-joined left columns keep their single prefix")
	_, ok = secondJoin.Schema.Lookup("enrollments.grade")
	assert.True(t, ok)
}

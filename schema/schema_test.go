package schema

import (
	"testing"

	"github.com/minisqldb/minisqldb/cell"
	"github.com/stretchr/testify/assert"
)

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New(Column{Name: "id", Type: cell.Integer}, Column{Name: "id", Type: cell.Text})
	assert.Error(t, err)
}

func TestLookupPreservesOrder(t *testing.T) {
	s, err := New(
		Column{Name: "id", Type: cell.Integer},
		Column{Name: "name", Type: cell.Text},
	)
	assert.NoError(t, err)

	col, ok := s.Lookup("name")
	assert.True(t, ok)
	assert.Equal(t, cell.Text, col.Type)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, "id", s.ColumnAt(0).Name)
}

func TestEqual(t *testing.T) {
	a, _ := New(Column{Name: "id", Type: cell.Integer})
	b, _ := New(Column{Name: "id", Type: cell.Integer})
	c, _ := New(Column{Name: "id", Type: cell.Text})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNewRowDefaultsCells(t *testing.T) {
	s, _ := New(
		Column{Name: "id", Type: cell.Integer},
		Column{Name: "name", Type: cell.Text},
	)
	row := NewRow(s)

	v, ok := row.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "0", v.Text())

	v, ok = row.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "", v.Text())
}

func TestCloneIsIndependent(t *testing.T) {
	s, _ := New(Column{Name: "id", Type: cell.Integer})
	row := NewRow(s)
	clone := row.Clone()
	clone.Set("id", cell.FromInt(5))

	v, _ := row.Get("id")
	assert.Equal(t, int64(0), must(v.Int()))

	v, _ = clone.Get("id")
	assert.Equal(t, int64(5), must(v.Int()))
}

func must(v int64, err error) int64 {
	if err != nil {
		panic(err)
	}
	return v
}

package catalog

import (
	"testing"

	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/schema"
	"github.com/minisqldb/minisqldb/table"
	"github.com/stretchr/testify/assert"
)

func newTable(t *testing.T, name string) *table.Table {
	t.Helper()
	s, err := schema.New(schema.Column{Name: "id", Type: cell.Integer})
	assert.NoError(t, err)
	return table.New(name, s)
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	db := New("d")
	assert.NoError(t, db.CreateTable(newTable(t, "students")))
	assert.Error(t, db.CreateTable(newTable(t, "students")))
}

func TestGetTableMissing(t *testing.T) {
	db := New("d")
	_, err := db.GetTable("missing")
	assert.Error(t, err)
}

func TestDropTable(t *testing.T) {
	db := New("d")
	assert.NoError(t, db.CreateTable(newTable(t, "students")))
	assert.True(t, db.HasTable("students"))
	assert.NoError(t, db.DropTable("students"))
	assert.False(t, db.HasTable("students"))
	assert.Error(t, db.DropTable("students"))
}

func TestTableNamesPreservesOrder(t *testing.T) {
	db := New("d")
	assert.NoError(t, db.CreateTable(newTable(t, "b")))
	assert.NoError(t, db.CreateTable(newTable(t, "a")))
	assert.Equal(t, []string{"b", "a"}, db.TableNames())
}

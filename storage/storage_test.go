package storage

import (
	"path/filepath"
	"testing"

	"github.com/minisqldb/minisqldb/cell"
	"github.com/minisqldb/minisqldb/schema"
	"github.com/minisqldb/minisqldb/table"
	"github.com/stretchr/testify/assert"
)

func TestCreateLoadSaveDeleteRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	db, err := store.CreateDatabase("d")
	assert.NoError(t, err)

	s, err := schema.New(schema.Column{Name: "id", Type: cell.Integer}, schema.Column{Name: "name", Type: cell.Text})
	assert.NoError(t, err)
	tbl := table.New("students", s)
	row := schema.NewRow(s)
	row.Set("id", cell.FromInt(1))
	row.Set("name", cell.FromText("Alice"))
	assert.NoError(t, tbl.Append(row))
	assert.NoError(t, db.CreateTable(tbl))

	assert.NoError(t, store.SaveDatabase(db))
	assert.FileExists(t, filepath.Join(root, "d", "students.csv"))

	loaded, err := store.LoadDatabase("d")
	assert.NoError(t, err)
	assert.True(t, loaded.HasTable("students"))

	loadedTable, err := loaded.GetTable("students")
	assert.NoError(t, err)
	assert.Len(t, loadedTable.Rows, 1)

	dbs, err := store.ListDatabases()
	assert.NoError(t, err)
	assert.Contains(t, dbs, "d")

	assert.NoError(t, store.DeleteDatabase("d"))
	_, err = store.LoadDatabase("d")
	assert.Error(t, err)
}

func TestLoadMissingDatabaseFails(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.LoadDatabase("nope")
	assert.Error(t, err)
}

func TestDeleteMissingDatabaseFails(t *testing.T) {
	store := New(t.TempDir())
	err := store.DeleteDatabase("nope")
	assert.Error(t, err)
}

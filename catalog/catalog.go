// Package catalog implements the in-memory Database: an ordered,
// name-unique collection of Tables.
package catalog

import (
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/table"
)

// Database is an ordered mapping of table name to Table.
type Database struct {
	Name   string
	names  []string
	tables map[string]*table.Table
}

// New builds an empty database.
func New(name string) *Database {
	return &Database{Name: name, tables: make(map[string]*table.Table)}
}

// CreateTable registers a new table, failing if the name already exists.
func (d *Database) CreateTable(t *table.Table) error {
	if _, ok := d.tables[t.Name]; ok {
		return minierr.New(minierr.Catalog, "table %q already exists", t.Name)
	}
	d.names = append(d.names, t.Name)
	d.tables[t.Name] = t
	return nil
}

// GetTable returns the live table by name, failing if missing. The
// returned pointer is mutable: INSERT/UPDATE/DELETE act through it.
func (d *Database) GetTable(name string) (*table.Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, minierr.New(minierr.Catalog, "table %q not found", name)
	}
	return t, nil
}

// DropTable removes a table, failing if missing.
func (d *Database) DropTable(name string) error {
	if _, ok := d.tables[name]; !ok {
		return minierr.New(minierr.Catalog, "table %q not found", name)
	}
	delete(d.tables, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
	return nil
}

// HasTable reports whether a table is registered.
func (d *Database) HasTable(name string) bool {
	_, ok := d.tables[name]
	return ok
}

// TableNames returns table names in registration order.
func (d *Database) TableNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

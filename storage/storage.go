// Package storage maps the in-memory catalog onto a directory-of-CSV-
// files catalog on disk: one sub-directory per database, one .csv file
// per table, file stem = table name.
package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/minisqldb/minisqldb/catalog"
	"github.com/minisqldb/minisqldb/csvcodec"
	"github.com/minisqldb/minisqldb/minierr"
	"github.com/minisqldb/minisqldb/table"
)

// persistOptions is the dialect used for every table file on disk: a
// types row, no string quoting.
var persistOptions = csvcodec.Options{WithTypes: true, QuotedStrings: false}

// DiskStore maps database names to sub-directories of Root.
type DiskStore struct {
	Root string
}

// New builds a DiskStore rooted at root (e.g. "./dbs").
func New(root string) *DiskStore {
	return &DiskStore{Root: root}
}

func (d *DiskStore) dbPath(name string) string {
	return filepath.Join(d.Root, name)
}

// CreateDatabase ensures the sub-directory exists and returns a fresh
// empty Database.
func (d *DiskStore) CreateDatabase(name string) (*catalog.Database, error) {
	if err := os.MkdirAll(d.dbPath(name), 0o755); err != nil {
		return nil, minierr.Wrap(minierr.IO, err, "creating database %q", name)
	}
	return catalog.New(name), nil
}

// LoadDatabase fails if the sub-directory is missing, then loads every
// *.csv file in it as a table named after its file stem.
func (d *DiskStore) LoadDatabase(name string) (*catalog.Database, error) {
	dir := d.dbPath(name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, minierr.Wrap(minierr.Catalog, err, "database %q not found", name)
	}

	db := catalog.New(name)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		tableName := strings.TrimSuffix(entry.Name(), ".csv")
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, minierr.Wrap(minierr.IO, err, "opening table file %q", entry.Name())
		}
		tbl, err := csvcodec.Load(f, tableName, persistOptions)
		f.Close()
		if err != nil {
			return nil, err
		}
		if err := db.CreateTable(tbl); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// SaveDatabase ensures the sub-directory exists and overwrites every
// table's .csv file.
func (d *DiskStore) SaveDatabase(db *catalog.Database) error {
	dir := d.dbPath(db.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return minierr.Wrap(minierr.IO, err, "creating database directory %q", db.Name)
	}
	for _, name := range db.TableNames() {
		t, err := db.GetTable(name)
		if err != nil {
			return err
		}
		slog.Info("saving table", "table", name, "rows", len(t.Rows))
		if err := writeTableFile(dir, t); err != nil {
			return err
		}
	}
	return nil
}

func writeTableFile(dir string, t *table.Table) error {
	path := filepath.Join(dir, t.Name+".csv")
	if err := os.WriteFile(path, []byte(csvcodec.Dump(t, persistOptions)), 0o644); err != nil {
		return minierr.Wrap(minierr.IO, err, "writing table file %q", path)
	}
	return nil
}

// DeleteDatabase removes the sub-directory recursively, failing if
// missing.
func (d *DiskStore) DeleteDatabase(name string) error {
	dir := d.dbPath(name)
	if _, err := os.Stat(dir); err != nil {
		return minierr.Wrap(minierr.Catalog, err, "database %q not found", name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return minierr.Wrap(minierr.IO, err, "deleting database %q", name)
	}
	return nil
}

// ListDatabases returns the names of sub-directories of Root.
func (d *DiskStore) ListDatabases() ([]string, error) {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return nil, minierr.Wrap(minierr.IO, err, "creating databases root %q", d.Root)
	}
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, minierr.Wrap(minierr.IO, err, "listing databases root %q", d.Root)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

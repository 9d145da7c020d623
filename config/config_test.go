package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minisqldb.yml")
	assert.NoError(t, os.WriteFile(path, []byte("dbs_root: /var/minisqldb\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "/var/minisqldb", cfg.DBsRoot)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFillsMissingFieldsWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minisqldb.yml")
	assert.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "./dbs", cfg.DBsRoot)
	assert.Equal(t, "warn", cfg.LogLevel)
}

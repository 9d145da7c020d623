// Package config loads the engine's optional YAML configuration file.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the top-level shape of minisqldb.yml. Zero values are
// sensible defaults, mirroring the teacher's database.Config structs.
type Config struct {
	DBsRoot  string `yaml:"dbs_root"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{DBsRoot: "./dbs", LogLevel: "info"}
}

// Load reads and parses path. A missing file is not an error: Default
// is returned instead. A present-but-invalid file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBsRoot == "" {
		cfg.DBsRoot = "./dbs"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// Package config provides configuration loading and structs for featrans.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/featrans/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Engine  EngineConfig  `yaml:"engine"`
	Data    DataConfig    `yaml:"data"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// EngineConfig describes the transformers and the output layout.
type EngineConfig struct {
	// IndexFrom is the global index of the first feature (0 or 1 for common formats).
	IndexFrom int `yaml:"index_from"`
	// CacheSize bounds the per-column memo cache; 0 disables it. Unset uses the default.
	CacheSize *int `yaml:"cache_size"`
	// Transformers lists one spec per column.
	Transformers []models.ColumnSpec `yaml:"transformers"`
	// Columns are the output columns in index allocation order, label included.
	// Empty means every transformer column in declared order.
	Columns []string `yaml:"columns"`
}

// CacheSizeOrDefault returns the configured cache size; defaults to DefaultCacheSize when unset.
func (e *EngineConfig) CacheSizeOrDefault() int {
	if e.CacheSize != nil {
		return *e.CacheSize
	}
	return DefaultCacheSize
}

// DataConfig locates the tabular data used for discovery and transform.
type DataConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Sheet  string `yaml:"sheet"`
}

// StorageConfig holds snapshot locations.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	// DatabasePath enables the SQLite snapshot catalogue when set.
	DatabasePath string `yaml:"database_path"`
	SnapshotName string `yaml:"snapshot_name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// WatchSnapshot reloads the engine when the snapshot file is replaced.
	WatchSnapshot bool `yaml:"watch_snapshot"`
}

// Load reads and parses the config file at path, applies defaults, expands paths and validates.
// Returns an error if the file cannot be read or parsed or the engine section is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	if cfg.Data.Path != "" {
		cfg.Data.Path = expandPath(cfg.Data.Path, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the engine section for unknown kinds and duplicate columns.
func (c *Config) Validate() error {
	if len(c.Engine.Transformers) == 0 {
		return fmt.Errorf("invalid config: engine.transformers is empty")
	}
	seen := make(map[string]bool, len(c.Engine.Transformers))
	for i, spec := range c.Engine.Transformers {
		if strings.TrimSpace(spec.Column) == "" {
			return fmt.Errorf("invalid config: engine.transformers[%d] has no column", i)
		}
		if _, err := models.ParseKind(string(spec.Kind)); err != nil {
			return fmt.Errorf("invalid config: engine.transformers[%d]: %w", i, err)
		}
		if seen[spec.Column] {
			return fmt.Errorf("invalid config: %w: %s", models.ErrDuplicateColumn, spec.Column)
		}
		seen[spec.Column] = true
	}
	if c.Engine.CacheSize != nil && *c.Engine.CacheSize < 0 {
		return fmt.Errorf("invalid config: engine.cache_size must not be negative")
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

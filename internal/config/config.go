// Package config handles notly configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/noureldenadel/notly/internal/errors"
)

// AppVersion is stamped into bundle manifests.
const AppVersion = "0.6.0"

// ConfigFileName is the configuration file name inside the notly directory.
const ConfigFileName = "config.yaml"

// Config holds all notly configuration.
type Config struct {
	// DataDir is the root of the app data directory
	// (databases, assets, exports). Defaults to ~/.notly.
	DataDir string `yaml:"data_dir"`

	Storage  StorageConfig  `yaml:"storage"`
	Assets   AssetConfig    `yaml:"assets"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig selects and tunes the persistence backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`
	// DatabaseFile overrides the sqlite file path. Relative paths are
	// resolved against DataDir.
	DatabaseFile string `yaml:"database_file"`
}

// AssetConfig selects the asset store implementation.
type AssetConfig struct {
	// Mode is "fs" (filesystem-capable runtime) or "data-url" (sandboxed).
	Mode string `yaml:"mode"`
}

// AutosaveConfig tunes the snapshot autosave debouncer.
type AutosaveConfig struct {
	// Debounce is the quiet period before a pending snapshot is flushed.
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig tunes logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	dataDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".notly")
	}
	return &Config{
		DataDir: dataDir,
		Storage: StorageConfig{
			Backend:      "sqlite",
			DatabaseFile: "notly.db",
		},
		Assets: AssetConfig{
			Mode: "fs",
		},
		Autosave: AutosaveConfig{
			Debounce: 800 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return errors.ErrConfigInvalid("storage.backend",
			fmt.Sprintf("unknown backend %q, expected sqlite or memory", c.Storage.Backend))
	}
	switch c.Assets.Mode {
	case "fs", "data-url":
	default:
		return errors.ErrConfigInvalid("assets.mode",
			fmt.Sprintf("unknown asset mode %q, expected fs or data-url", c.Assets.Mode))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.ErrConfigInvalid("log.level",
			fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	if c.Autosave.Debounce < 0 {
		return errors.ErrConfigInvalid("autosave.debounce", "must not be negative")
	}
	if c.DataDir == "" {
		return errors.ErrConfigInvalid("data_dir", "could not determine a data directory")
	}
	return nil
}

// DatabasePath returns the absolute sqlite database path.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Storage.DatabaseFile) {
		return c.Storage.DatabaseFile
	}
	return filepath.Join(c.DataDir, c.Storage.DatabaseFile)
}

// AssetsDir returns the root directory for stored asset bytes.
func (c *Config) AssetsDir() string {
	return filepath.Join(c.DataDir, "assets")
}

// EnsureDirectoryStructure creates the app data layout if missing:
// projects/, backups/, temp/ and the asset root.
func (c *Config) EnsureDirectoryStructure() error {
	for _, dir := range []string{
		c.DataDir,
		filepath.Join(c.DataDir, "projects"),
		filepath.Join(c.DataDir, "backups"),
		filepath.Join(c.DataDir, "temp"),
		c.AssetsDir(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// applyEnvVars overrides configuration from NOTLY_* environment variables.
func applyEnvVars(cfg *Config) {
	if v := os.Getenv("NOTLY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("NOTLY_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("NOTLY_DATABASE_FILE"); v != "" {
		cfg.Storage.DatabaseFile = v
	}
	if v := os.Getenv("NOTLY_ASSET_MODE"); v != "" {
		cfg.Assets.Mode = v
	}
	if v := os.Getenv("NOTLY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NOTLY_AUTOSAVE_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Autosave.Debounce = time.Duration(ms) * time.Millisecond
		}
	}
}

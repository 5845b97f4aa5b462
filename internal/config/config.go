// Package config resolves the data directory and runtime settings of the
// docindex binaries from defaults, an optional TOML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	appDirName       = ".docindex-mcp"
	defaultIndexName = "search_index.js"
	defaultHTTPAddr  = "127.0.0.1:8089"
)

// Config holds all runtime settings
type Config struct {
	DataDir       string
	IndexFile     string // Artifact served and watched
	HTTPAddr      string
	Watch         bool // Reload the table when the artifact is regenerated
	WatchDebounce time.Duration
	LockTimeout   time.Duration
}

// fileConfig mirrors Config for TOML decoding; durations are written as strings ("250ms")
type fileConfig struct {
	DataDir       string `toml:"data_dir"`
	IndexFile     string `toml:"index_file"`
	HTTPAddr      string `toml:"http_addr"`
	Watch         *bool  `toml:"watch"`
	WatchDebounce string `toml:"watch_debounce"`
	LockTimeout   string `toml:"lock_timeout"`
}

// Default returns the built-in settings rooted at dataDir
func Default(dataDir string) *Config {
	return &Config{
		DataDir:       dataDir,
		IndexFile:     filepath.Join(dataDir, defaultIndexName),
		HTTPAddr:      defaultHTTPAddr,
		Watch:         false,
		WatchDebounce: 250 * time.Millisecond,
		LockTimeout:   5 * time.Second,
	}
}

// Load builds the configuration.
// Precedence, lowest first: defaults, TOML file, .env file, process environment.
func Load() (*Config, error) {
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	dataDir := os.Getenv("DOCINDEX_DATA_DIR")
	if dataDir == "" {
		dataDir = ResolveDataDir()
	}
	cfg := Default(dataDir)

	configPath := os.Getenv("DOCINDEX_CONFIG")
	if configPath == "" {
		configPath = filepath.Join(dataDir, "config.toml")
	}
	indexFileSet, err := cfg.mergeFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.mergeEnv(indexFileSet); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile applies values from a TOML file; a missing file is not an error.
// It reports whether the file set index_file explicitly.
func (c *Config) mergeFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
		c.IndexFile = filepath.Join(fc.DataDir, defaultIndexName)
	}
	if fc.IndexFile != "" {
		c.IndexFile = fc.IndexFile
	}
	if fc.HTTPAddr != "" {
		c.HTTPAddr = fc.HTTPAddr
	}
	if fc.Watch != nil {
		c.Watch = *fc.Watch
	}
	if fc.WatchDebounce != "" {
		d, err := time.ParseDuration(fc.WatchDebounce)
		if err != nil {
			return false, fmt.Errorf("invalid watch_debounce in %s: %w", path, err)
		}
		c.WatchDebounce = d
	}
	if fc.LockTimeout != "" {
		d, err := time.ParseDuration(fc.LockTimeout)
		if err != nil {
			return false, fmt.Errorf("invalid lock_timeout in %s: %w", path, err)
		}
		c.LockTimeout = d
	}
	return fc.IndexFile != "", nil
}

// mergeEnv applies DOCINDEX_* variables over everything else.
// The index file follows DOCINDEX_DATA_DIR unless it was set explicitly.
func (c *Config) mergeEnv(indexFileSet bool) error {
	if v := os.Getenv("DOCINDEX_DATA_DIR"); v != "" {
		c.DataDir = v
		if !indexFileSet {
			c.IndexFile = filepath.Join(v, defaultIndexName)
		}
	}
	if v := os.Getenv("DOCINDEX_INDEX_FILE"); v != "" {
		c.IndexFile = v
	}
	if v := os.Getenv("DOCINDEX_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("DOCINDEX_WATCH"); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DOCINDEX_WATCH: %w", err)
		}
		c.Watch = watch
	}
	if v := os.Getenv("DOCINDEX_WATCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DOCINDEX_WATCH_DEBOUNCE: %w", err)
		}
		c.WatchDebounce = d
	}
	if v := os.Getenv("DOCINDEX_LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DOCINDEX_LOCK_TIMEOUT: %w", err)
		}
		c.LockTimeout = d
	}
	return nil
}

// Save writes the configuration as TOML
func (c *Config) Save(path string) error {
	watch := c.Watch
	fc := fileConfig{
		DataDir:       c.DataDir,
		IndexFile:     c.IndexFile,
		HTTPAddr:      c.HTTPAddr,
		Watch:         &watch,
		WatchDebounce: c.WatchDebounce.String(),
		LockTimeout:   c.LockTimeout.String(),
	}
	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir picks the data directory:
// ~/.docindex-mcp, then ../data next to the binary, then ./data.
func ResolveDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, appDirName)

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			return userDataDir
		}
		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			log.Printf("✓ Data directory created: %s", userDataDir)
			return userDataDir
		}
		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	if execPath, err := os.Executable(); err == nil {
		relativeDataDir := filepath.Join(filepath.Dir(execPath), "..", "data")
		if info, err := os.Stat(relativeDataDir); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(relativeDataDir); err == nil {
				return abs
			}
		}
	}

	dataDir := filepath.Join(".", "data")
	log.Printf("⚠️  Data directory (fallback): %s", dataDir)
	os.MkdirAll(dataDir, 0755)
	return dataDir
}

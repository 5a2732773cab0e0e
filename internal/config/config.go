package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the per-project config file name.
	ProjectConfigFile = ".siteindex.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SITEINDEX_"
)

// Config represents the complete siteindex configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures index storage and the write/read paths.
type IndexConfig struct {
	// Root is the directory holding <site-id>/<folder> index directories.
	Root string `yaml:"root" json:"root"`

	// BatchSize is how many documents a write session buffers before flushing.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// DirectoryCacheSize bounds the directory handle cache.
	DirectoryCacheSize int `yaml:"directory_cache_size" json:"directory_cache_size"`

	// SearcherCacheSize bounds the per-definition search result cache.
	SearcherCacheSize int `yaml:"searcher_cache_size" json:"searcher_cache_size"`

	// LockTimeout bounds how long opening an index waits on the storage engine.
	LockTimeout time.Duration `yaml:"lock_timeout" json:"lock_timeout"`
}

// StoreConfig configures the entity store.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	data := defaultDataDir()
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Root:               filepath.Join(data, "indexes"),
			BatchSize:          500,
			DirectoryCacheSize: 64,
			SearcherCacheSize:  256,
			LockTimeout:        time.Second,
		},
		Store: StoreConfig{
			Path: filepath.Join(data, "content.db"),
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// defaultDataDir returns ~/.siteindex, or a temp directory without a home.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".siteindex")
	}
	return filepath.Join(home, ".siteindex")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/siteindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/siteindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "siteindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "siteindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "siteindex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/siteindex/config.yaml)
//  3. Project config (.siteindex.yaml in dir)
//  4. .env in dir (never overrides variables already set)
//  5. Environment variables (SITEINDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := LoadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile attempts to load configuration from .siteindex.yaml or .siteindex.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigFile)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, strings.TrimSuffix(ProjectConfigFile, ".yaml")+".yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Index.Root != "" {
		c.Index.Root = other.Index.Root
	}
	if other.Index.BatchSize != 0 {
		c.Index.BatchSize = other.Index.BatchSize
	}
	if other.Index.DirectoryCacheSize != 0 {
		c.Index.DirectoryCacheSize = other.Index.DirectoryCacheSize
	}
	if other.Index.SearcherCacheSize != 0 {
		c.Index.SearcherCacheSize = other.Index.SearcherCacheSize
	}
	if other.Index.LockTimeout != 0 {
		c.Index.LockTimeout = other.Index.LockTimeout
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies SITEINDEX_* environment variable overrides.
// Malformed numbers and durations are reported rather than ignored.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPrefix + "INDEX_ROOT"); v != "" {
		c.Index.Root = v
	}
	if err := envInt(EnvPrefix+"BATCH_SIZE", &c.Index.BatchSize); err != nil {
		return err
	}
	if err := envInt(EnvPrefix+"DIRECTORY_CACHE_SIZE", &c.Index.DirectoryCacheSize); err != nil {
		return err
	}
	if err := envInt(EnvPrefix+"SEARCHER_CACHE_SIZE", &c.Index.SearcherCacheSize); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sLOCK_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Index.LockTimeout = d
	}

	if v := os.Getenv(EnvPrefix + "STORE_PATH"); v != "" {
		c.Store.Path = v
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.Root == "" {
		return fmt.Errorf("index.root must be set")
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	if c.Index.DirectoryCacheSize <= 0 {
		return fmt.Errorf("index.directory_cache_size must be positive, got %d", c.Index.DirectoryCacheSize)
	}
	if c.Index.SearcherCacheSize <= 0 {
		return fmt.Errorf("index.searcher_cache_size must be positive, got %d", c.Index.SearcherCacheSize)
	}
	if c.Index.LockTimeout < 0 {
		return fmt.Errorf("index.lock_timeout must be non-negative, got %s", c.Index.LockTimeout)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging.max_size_mb and logging.max_files must be non-negative")
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

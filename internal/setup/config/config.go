package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileName is the name of the config file looked up in each config path.
const FileName = "config.toml"

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the config file version this build understands.
const CurrentVersion = 1

// Config represents the entire application configuration, loaded from config.toml.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Storage    Storage    `koanf:"storage"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	SQLite     SQLite     `koanf:"sqlite"`
	GeminiAI   GeminiAI   `koanf:"gemini_ai"`
	Classifier Classifier `koanf:"classifier"`
	Moderation Moderation `koanf:"moderation"`
	API        API        `koanf:"api"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Storage selects the durable store backend.
type Storage struct {
	// Driver name (memory, file, redis, sqlite, postgres).
	Driver string `koanf:"driver"`
	// Path of the JSON document for the file driver.
	FilePath string `koanf:"file_path"`
	// Key prefix for the redis driver.
	KeyPrefix string `koanf:"key_prefix"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host         string `koanf:"host"`           // Database hostname
	Port         int    `koanf:"port"`           // Database port
	User         string `koanf:"user"`           // Database username
	Password     string `koanf:"password"`       // Database password
	DBName       string `koanf:"db_name"`        // Database name
	MaxOpenConns int    `koanf:"max_open_conns"` // Maximum open connections
	MaxIdleConns int    `koanf:"max_idle_conns"` // Maximum idle connections
	MaxLifetime  int    `koanf:"max_lifetime"`   // Connection lifetime in minutes
	MaxIdleTime  int    `koanf:"max_idle_time"`  // Idle timeout in minutes
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`     // Redis hostname
	Port     int    `koanf:"port"`     // Redis port
	Username string `koanf:"username"` // Redis username
	Password string `koanf:"password"` // Redis password
	// Disable rueidis client-side caching (required for servers without RESP3 tracking).
	DisableCache bool `koanf:"disable_cache"`
}

// SQLite contains embedded database configuration.
type SQLite struct {
	Path string `koanf:"path"` // Database file path
}

// GeminiAI contains GeminiAI API configuration.
type GeminiAI struct {
	APIKey string `koanf:"api_key"` // API key for authentication
	Model  string `koanf:"model"`   // Model version to use
}

// Moderation contains moderation engine configuration.
type Moderation struct {
	// Path of a JSON lexicon; empty uses the built-in lexicon.
	LexiconPath string `koanf:"lexicon_path"`
	// Warning lifetime in hours.
	WarningTTLHours int `koanf:"warning_ttl_hours"`
	// Maximum characters kept in an alert excerpt.
	ExcerptLength int `koanf:"excerpt_length"`
}

// Classifier contains secondary classifier configuration.
type Classifier struct {
	// Enable the classifier; when disabled every request is allowed.
	Enabled bool `koanf:"enabled"`
	// Per-request timeout in milliseconds.
	Timeout int `koanf:"timeout"`
	// Maximum concurrent classifier requests.
	MaxConcurrent int64 `koanf:"max_concurrent"`
	// Maximum goroutines used by batch classification.
	BatchConcurrency int `koanf:"batch_concurrency"`
	// Consecutive failures before the circuit breaker opens.
	BreakerFailures uint32 `koanf:"breaker_failures"`
	// Seconds the circuit breaker stays open.
	BreakerTimeout int `koanf:"breaker_timeout"`
}

// API contains REST server configuration.
type API struct {
	Host string `koanf:"host"` // Listen host
	Port int    `koanf:"port"` // Listen port
}

// LoadConfig loads config.toml from the first config path that has it.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".modguard",
		homeDir + "/.modguard/config",
		"/etc/modguard/config",
		"/app/config",
		"config",
		".",
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, FileName)); err == nil {
			cfg, err := LoadFile(filepath.Join(path, FileName))
			return cfg, path, err
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, FileName)
}

// LoadFile loads and validates a single config file.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(cfg.Version); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills unset values with working defaults.
func (c *Config) applyDefaults() {
	if c.Debug.LogLevel == "" {
		c.Debug.LogLevel = "info"
	}
	if c.Debug.MaxLogsToKeep <= 0 {
		c.Debug.MaxLogsToKeep = 10
	}
	if c.Debug.MaxLogLines <= 0 {
		c.Debug.MaxLogLines = 10000
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.FilePath == "" {
		c.Storage.FilePath = "data/moderation.json"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "data/moderation.db"
	}
	if c.GeminiAI.Model == "" {
		c.GeminiAI.Model = "gemini-2.0-flash"
	}
	if c.Moderation.WarningTTLHours <= 0 {
		c.Moderation.WarningTTLHours = 7 * 24
	}
	if c.Moderation.ExcerptLength <= 0 {
		c.Moderation.ExcerptLength = 200
	}
	if c.Classifier.Timeout <= 0 {
		c.Classifier.Timeout = 15000
	}
	if c.Classifier.MaxConcurrent <= 0 {
		c.Classifier.MaxConcurrent = 4
	}
	if c.Classifier.BatchConcurrency <= 0 {
		c.Classifier.BatchConcurrency = 4
	}
	if c.Classifier.BreakerFailures == 0 {
		c.Classifier.BreakerFailures = 5
	}
	if c.Classifier.BreakerTimeout <= 0 {
		c.Classifier.BreakerTimeout = 60
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current int) error {
	if current == 0 {
		return ErrConfigVersionMissing
	}
	if current != CurrentVersion {
		return fmt.Errorf("%w (got: %d, expected: %d)", ErrConfigVersionMismatch, current, CurrentVersion)
	}
	return nil
}

// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	appDirName     = ".commander-decks"
	configFileName = "config.toml"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Resolver ResolverConfig `toml:"resolver"`
	Import   ImportConfig   `toml:"import"`
	Cache    CacheConfig    `toml:"cache"`
	Sources  SourcesConfig  `toml:"sources"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string   `toml:"addr"`             // Listen address (e.g., ":8080")
	RequestTimeout  string   `toml:"request_timeout"`  // Per-request timeout
	ShutdownTimeout string   `toml:"shutdown_timeout"` // Graceful shutdown limit
	AllowedOrigins  []string `toml:"allowed_origins"`  // CORS origins
}

// DatabaseConfig contains card cache database settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`         // SQLite file path, or ":memory:"
	AutoMigrate bool   `toml:"auto_migrate"` // Apply migrations on startup
	BusyTimeout string `toml:"busy_timeout"`
}

// CatalogConfig contains card catalog API settings.
type CatalogConfig struct {
	BaseURL    string `toml:"base_url"`
	UserAgent  string `toml:"user_agent"`
	RateLimit  string `toml:"rate_limit"` // Minimum delay between requests
	Timeout    string `toml:"timeout"`
	MaxRetries int    `toml:"max_retries"`
}

// ResolverConfig contains card name resolution settings.
type ResolverConfig struct {
	BatchSize         int `toml:"batch_size"`          // Identifiers per catalog request (max 75)
	Concurrency       int `toml:"concurrency"`         // Catalog requests in flight
	FuzzyThreshold    int `toml:"fuzzy_threshold"`     // Score needed to auto-resolve
	CandidateMinScore int `toml:"candidate_min_score"` // Lowest score offered as a candidate
	MaxCandidates     int `toml:"max_candidates"`
}

// ImportConfig contains deck-list import settings.
type ImportConfig struct {
	MaxLineLength   int `toml:"max_line_length"`
	MaxTextBytes    int `toml:"max_text_bytes"`
	DefaultDeckSize int `toml:"default_deck_size"`
}

// CacheConfig contains card cache write-through settings.
type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	QueueSize     int    `toml:"queue_size"`
	WriteTimeout  string `toml:"write_timeout"`
	TTL           string `toml:"ttl"`            // Age after which cached cards are pruned
	PruneInterval string `toml:"prune_interval"` // How often serve prunes; "0s" disables
}

// SourcesConfig contains deck site fetch settings.
type SourcesConfig struct {
	UserAgent    string `toml:"user_agent"`
	Timeout      string `toml:"timeout"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level       string `toml:"level"`       // debug, info, warn, error
	Development bool   `toml:"development"` // Console output instead of JSON
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  "60s",
			ShutdownTimeout: "10s",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(appDir(), "cards.db"),
			AutoMigrate: true,
			BusyTimeout: "5s",
		},
		Catalog: CatalogConfig{
			BaseURL:    "https://api.scryfall.com",
			UserAgent:  "CommanderDecks/1.0",
			RateLimit:  "100ms",
			Timeout:    "30s",
			MaxRetries: 3,
		},
		Resolver: ResolverConfig{
			BatchSize:         75,
			Concurrency:       4,
			FuzzyThreshold:    90,
			CandidateMinScore: 60,
			MaxCandidates:     5,
		},
		Import: ImportConfig{
			MaxLineLength:   500,
			MaxTextBytes:    1 << 20,
			DefaultDeckSize: 100,
		},
		Cache: CacheConfig{
			Enabled:       true,
			QueueSize:     64,
			WriteTimeout:  "10s",
			TTL:           "720h",
			PruneInterval: "24h",
		},
		Sources: SourcesConfig{
			UserAgent:    "CommanderDecks/1.0",
			Timeout:      "30s",
			MaxBodyBytes: 5 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// appDir returns ~/.commander-decks, or the working directory when the
// home directory is unknown.
func appDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(homeDir, appDirName)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(appDir(), configFileName)
}

// Load reads the configuration at path, or DefaultPath when path is empty.
// Keys missing from the file keep their default values. A missing file
// yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Save writes the configuration to path, or DefaultPath when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value string
	}{
		{"server.request_timeout", c.Server.RequestTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"database.busy_timeout", c.Database.BusyTimeout},
		{"catalog.rate_limit", c.Catalog.RateLimit},
		{"catalog.timeout", c.Catalog.Timeout},
		{"cache.write_timeout", c.Cache.WriteTimeout},
		{"cache.ttl", c.Cache.TTL},
		{"cache.prune_interval", c.Cache.PruneInterval},
		{"sources.timeout", c.Sources.Timeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative: %s", d.name, d.value)
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("catalog.max_retries cannot be negative: %d", c.Catalog.MaxRetries)
	}

	if c.Resolver.BatchSize < 1 || c.Resolver.BatchSize > 75 {
		return fmt.Errorf("resolver.batch_size must be between 1 and 75: %d", c.Resolver.BatchSize)
	}
	if c.Resolver.Concurrency < 1 {
		return fmt.Errorf("resolver.concurrency must be positive: %d", c.Resolver.Concurrency)
	}
	if c.Resolver.FuzzyThreshold < 1 || c.Resolver.FuzzyThreshold > 100 {
		return fmt.Errorf("resolver.fuzzy_threshold must be between 1 and 100: %d", c.Resolver.FuzzyThreshold)
	}
	if c.Resolver.CandidateMinScore < 0 || c.Resolver.CandidateMinScore > c.Resolver.FuzzyThreshold {
		return fmt.Errorf("resolver.candidate_min_score must be between 0 and fuzzy_threshold: %d", c.Resolver.CandidateMinScore)
	}
	if c.Resolver.MaxCandidates < 1 {
		return fmt.Errorf("resolver.max_candidates must be positive: %d", c.Resolver.MaxCandidates)
	}

	if c.Import.MaxLineLength < 1 {
		return fmt.Errorf("import.max_line_length must be positive: %d", c.Import.MaxLineLength)
	}
	if c.Import.MaxTextBytes < 1 {
		return fmt.Errorf("import.max_text_bytes must be positive: %d", c.Import.MaxTextBytes)
	}
	if c.Import.DefaultDeckSize < 1 {
		return fmt.Errorf("import.default_deck_size must be positive: %d", c.Import.DefaultDeckSize)
	}

	if c.Cache.QueueSize < 1 {
		return fmt.Errorf("cache.queue_size must be positive: %d", c.Cache.QueueSize)
	}
	if c.Sources.MaxBodyBytes < 1 {
		return fmt.Errorf("sources.max_body_bytes must be positive: %d", c.Sources.MaxBodyBytes)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

// duration parses a duration that Validate has already checked.
func duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

// RequestTimeoutDuration returns the per-request HTTP timeout.
func (c ServerConfig) RequestTimeoutDuration() time.Duration { return duration(c.RequestTimeout) }

// ShutdownTimeoutDuration returns the graceful shutdown limit.
func (c ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// BusyTimeoutDuration returns the SQLite busy timeout.
func (c DatabaseConfig) BusyTimeoutDuration() time.Duration { return duration(c.BusyTimeout) }

// RateLimitDuration returns the minimum delay between catalog requests.
func (c CatalogConfig) RateLimitDuration() time.Duration { return duration(c.RateLimit) }

// TimeoutDuration returns the catalog request timeout.
func (c CatalogConfig) TimeoutDuration() time.Duration { return duration(c.Timeout) }

// WriteTimeoutDuration returns the per-batch cache write timeout.
func (c CacheConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }

// TTLDuration returns the age after which cached cards are pruned.
func (c CacheConfig) TTLDuration() time.Duration { return duration(c.TTL) }

// PruneIntervalDuration returns how often serve prunes the cache.
func (c CacheConfig) PruneIntervalDuration() time.Duration { return duration(c.PruneInterval) }

// TimeoutDuration returns the deck fetch timeout.
func (c SourcesConfig) TimeoutDuration() time.Duration { return duration(c.Timeout) }

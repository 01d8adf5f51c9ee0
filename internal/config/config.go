// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres backend.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// AutoMigrate applies the embedded schema migrations when the pool opens.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig selects and configures the durable snapshot slot.
type StorageConfig struct {
	// Backend is one of "memory", "file", "sqlite", "postgres".
	Backend string `mapstructure:"backend"`
	// Key is the slot key the trial log snapshot is stored under.
	Key string `mapstructure:"key"`
	// Dir is the directory used by the file backend.
	Dir string `mapstructure:"dir"`
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string         `mapstructure:"sqlite_path"`
	Database   DatabaseConfig `mapstructure:"database"`
}

// SimulatorConfig holds coordinator settings.
type SimulatorConfig struct {
	// SettleDelay is how long a single-trial generation stays in flight.
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	// BatchSizes are the preset batch sizes offered by the shell.
	BatchSizes []int `mapstructure:"batch_sizes"`
	// HistoryLimit caps how many trials a history view shows.
	HistoryLimit int `mapstructure:"history_limit"`
	// RefreshInterval is the period of the read-only history refresh.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// Seed selects a deterministic source when non-zero; zero uses crypto/rand.
	Seed int64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulator(c.Simulator); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	var errs []string
	if s.Key == "" {
		errs = append(errs, "storage.key must not be empty")
	}
	switch s.Backend {
	case BackendMemory:
	case BackendFile:
		if s.Dir == "" {
			errs = append(errs, "storage.dir must not be empty for the file backend")
		}
	case BackendSQLite:
		if s.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path must not be empty for the sqlite backend")
		}
	case BackendPostgres:
		if err := validateDatabase(s.Database); err != nil {
			errs = append(errs, err.Error())
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be one of [memory, file, sqlite, postgres], got %q", s.Backend))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "storage.database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("storage.database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "storage.database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "storage.database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("storage.database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("storage.database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("storage.database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "storage.database.min_conns must not exceed storage.database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulator(s SimulatorConfig) error {
	var errs []string
	if s.SettleDelay < 0 {
		errs = append(errs, "simulator.settle_delay must not be negative")
	}
	if len(s.BatchSizes) == 0 {
		errs = append(errs, "simulator.batch_sizes must not be empty")
	}
	for _, n := range s.BatchSizes {
		if n < 1 {
			errs = append(errs, fmt.Sprintf("simulator.batch_sizes entries must be >= 1, got %d", n))
		}
	}
	if s.HistoryLimit < 1 {
		errs = append(errs, fmt.Sprintf("simulator.history_limit must be >= 1, got %d", s.HistoryLimit))
	}
	if s.RefreshInterval <= 0 {
		errs = append(errs, "simulator.refresh_interval must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path skips the file and uses
// defaults plus environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with PROBSIM_ prefix
	v.SetEnvPrefix("PROBSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by Load("") with no environment overrides.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("config: defaults do not unmarshal: " + err.Error())
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.key", "simulations")
	v.SetDefault("storage.dir", ".probsim")
	v.SetDefault("storage.sqlite_path", "probsim.sqlite")

	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.user", "probsim")
	v.SetDefault("storage.database.password", "probsim")
	v.SetDefault("storage.database.name", "probsim")
	v.SetDefault("storage.database.sslmode", "disable")
	v.SetDefault("storage.database.max_conns", 4)
	v.SetDefault("storage.database.min_conns", 1)
	v.SetDefault("storage.database.max_conn_lifetime", "1h")
	v.SetDefault("storage.database.auto_migrate", true)

	v.SetDefault("simulator.settle_delay", "1500ms")
	v.SetDefault("simulator.batch_sizes", []int{10, 50, 100})
	v.SetDefault("simulator.history_limit", 100)
	v.SetDefault("simulator.refresh_interval", "1m")
	v.SetDefault("simulator.seed", 0)
}

//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-parksim.
// Configuration is loaded from a config file, the process environment
// (optionally seeded from a .env file) and CLI flags. CLI flags take
// precedence over the environment, which takes precedence over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-parksim/internal/facility"
	"github.com/pgEdge/pgedge-parksim/internal/telemetry"
)

// ErrConfiguration matches every configuration failure, including invalid
// facility definitions.
var ErrConfiguration = facility.ErrConfiguration

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Environment variables bound to config keys.
var envBindings = map[string]string{
	"influxdb.url":    "INFLUXDB_URL",
	"influxdb.token":  "INFLUXDB_TOKEN",
	"influxdb.org":    "INFLUXDB_ORG",
	"influxdb.bucket": "INFLUXDB_BUCKET",
	"log_level":       "PARKSIM_LOG_LEVEL",
	"sink.kind":       "PARKSIM_SINK",
	"sink.connection": "PARKSIM_PG_CONNECTION",
}

// Config holds all configuration for pgedge-parksim.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// InfluxDB holds the time-series store settings.
	InfluxDB InfluxDBConfig `mapstructure:"influxdb"`

	// Sink selects where samples are written.
	Sink SinkConfig `mapstructure:"sink"`

	// Run holds configuration for the run subcommand.
	Run RunConfig `mapstructure:"run"`

	// Facilities is the simulated catalog. The built-in catalog is used
	// when the config file defines none.
	Facilities []facility.Definition `mapstructure:"facilities"`
}

// InfluxDBConfig holds InfluxDB v2 settings.
type InfluxDBConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// SinkConfig selects the sample store.
type SinkConfig struct {
	// Kind is one of influxdb, postgres, sqlite, memory.
	Kind string `mapstructure:"kind"`

	// Connection is the PostgreSQL connection string (postgres only).
	Connection string `mapstructure:"connection"`

	// Path is the database file (sqlite only).
	Path string `mapstructure:"path"`

	// Measurement is the measurement name written with every sample.
	Measurement string `mapstructure:"measurement"`
}

// RunConfig holds configuration for the simulation loop.
type RunConfig struct {
	// Timezone is the reference timezone for time-of-day regimes.
	Timezone string `mapstructure:"timezone"`

	// Interval is the tick period in seconds.
	Interval int `mapstructure:"interval"`

	// Duration is how long to run in minutes (0 = indefinite).
	Duration int `mapstructure:"duration"`

	// MetricsAddr enables a Prometheus listener when set (e.g. ":9108").
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Sink: SinkConfig{
			Kind:        telemetry.KindInfluxDB,
			Path:        telemetry.DefaultSQLitePath,
			Measurement: "parking_occupation",
		},
		Run: RunConfig{
			Timezone: "Europe/Paris",
			Interval: 60,
		},
	}
}

// LoadEnv seeds the process environment from a dotenv file. A missing
// file is not an error; variables already set are left alone.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading env file: %w", err)
	}
	return nil
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-parksim.yaml
// 3. ~/.config/pgedge-parksim/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-parksim")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-parksim"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if len(cfg.Facilities) == 0 {
		cfg.Facilities = facility.Defaults()
	}

	return cfg, nil
}

// Validate checks that the selected sink is fully configured.
func (c *Config) Validate() error {
	switch c.Sink.Kind {
	case telemetry.KindInfluxDB:
		required := []struct{ env, value string }{
			{"INFLUXDB_URL", c.InfluxDB.URL},
			{"INFLUXDB_TOKEN", c.InfluxDB.Token},
			{"INFLUXDB_ORG", c.InfluxDB.Org},
			{"INFLUXDB_BUCKET", c.InfluxDB.Bucket},
		}
		for _, r := range required {
			if r.value == "" {
				return &ConfigurationError{
					Key:    r.env,
					Reason: "is required; set it in the environment or a .env file",
				}
			}
		}
	case telemetry.KindPostgres:
		if c.Sink.Connection == "" {
			return &ConfigurationError{Key: "sink.connection", Reason: "is required for the postgres sink"}
		}
	case telemetry.KindSQLite, telemetry.KindMemory:
	default:
		return &ConfigurationError{
			Key:    "sink.kind",
			Reason: fmt.Sprintf("must be influxdb, postgres, sqlite or memory, got %q", c.Sink.Kind),
		}
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Run.Interval < 1 {
		return &ConfigurationError{Key: "run.interval", Reason: "must be at least 1 second"}
	}
	if c.Run.Duration < 0 {
		return &ConfigurationError{Key: "run.duration", Reason: "must be non-negative"}
	}
	if c.Run.Timezone != "" && c.Run.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Run.Timezone); err != nil {
			return &ConfigurationError{Key: "run.timezone", Reason: err.Error()}
		}
	}
	if _, err := facility.New(c.Facilities); err != nil {
		return err
	}
	return nil
}

// ValidateQuery checks configuration required for the query command.
func (c *Config) ValidateQuery() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Sink.Kind == telemetry.KindMemory {
		return &ConfigurationError{Key: "sink.kind", Reason: "the memory sink keeps no data between runs"}
	}
	return nil
}

// SinkSettings converts the configuration into telemetry settings.
func (c *Config) SinkSettings() telemetry.Config {
	return telemetry.Config{
		Kind: c.Sink.Kind,
		InfluxDB: telemetry.InfluxDBConfig{
			URL:    c.InfluxDB.URL,
			Token:  c.InfluxDB.Token,
			Org:    c.InfluxDB.Org,
			Bucket: c.InfluxDB.Bucket,
		},
		Connection: c.Sink.Connection,
		Path:       c.Sink.Path,
		Timezone:   c.Run.Timezone,
	}
}

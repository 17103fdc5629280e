//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pgEdge/pgedge-parksim/internal/facility"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func validInflux() InfluxDBConfig {
	return InfluxDBConfig{
		URL:    "http://localhost:8086",
		Token:  "secret",
		Org:    "cesi",
		Bucket: "parking",
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.Sink.Kind != "influxdb" {
		t.Errorf("Expected Sink.Kind 'influxdb', got '%s'", cfg.Sink.Kind)
	}
	if cfg.Sink.Measurement != "parking_occupation" {
		t.Errorf("Expected Sink.Measurement 'parking_occupation', got '%s'", cfg.Sink.Measurement)
	}
	if cfg.Run.Timezone != "Europe/Paris" {
		t.Errorf("Expected Run.Timezone 'Europe/Paris', got '%s'", cfg.Run.Timezone)
	}
	if cfg.Run.Interval != 60 {
		t.Errorf("Expected Run.Interval 60, got %d", cfg.Run.Interval)
	}
	if cfg.Run.Duration != 0 {
		t.Errorf("Expected Run.Duration 0, got %d", cfg.Run.Duration)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		wantError bool
	}{
		{
			name:      "valid influxdb",
			cfg:       &Config{Sink: SinkConfig{Kind: "influxdb"}, InfluxDB: validInflux()},
			wantError: false,
		},
		{
			name: "missing url",
			cfg: &Config{Sink: SinkConfig{Kind: "influxdb"},
				InfluxDB: InfluxDBConfig{Token: "t", Org: "o", Bucket: "b"}},
			wantError: true,
		},
		{
			name: "missing token",
			cfg: &Config{Sink: SinkConfig{Kind: "influxdb"},
				InfluxDB: InfluxDBConfig{URL: "u", Org: "o", Bucket: "b"}},
			wantError: true,
		},
		{
			name: "missing org",
			cfg: &Config{Sink: SinkConfig{Kind: "influxdb"},
				InfluxDB: InfluxDBConfig{URL: "u", Token: "t", Bucket: "b"}},
			wantError: true,
		},
		{
			name: "missing bucket",
			cfg: &Config{Sink: SinkConfig{Kind: "influxdb"},
				InfluxDB: InfluxDBConfig{URL: "u", Token: "t", Org: "o"}},
			wantError: true,
		},
		{
			name:      "postgres with connection",
			cfg:       &Config{Sink: SinkConfig{Kind: "postgres", Connection: "postgres://localhost/db"}},
			wantError: false,
		},
		{
			name:      "postgres without connection",
			cfg:       &Config{Sink: SinkConfig{Kind: "postgres"}},
			wantError: true,
		},
		{
			name:      "sqlite",
			cfg:       &Config{Sink: SinkConfig{Kind: "sqlite"}},
			wantError: false,
		},
		{
			name:      "memory",
			cfg:       &Config{Sink: SinkConfig{Kind: "memory"}},
			wantError: false,
		},
		{
			name:      "unknown sink",
			cfg:       &Config{Sink: SinkConfig{Kind: "kafka"}},
			wantError: true,
		},
		{
			name:      "empty config",
			cfg:       &Config{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("Expected a configuration error, got %T: %v", err, err)
				}
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidateNamesMissingVariable(t *testing.T) {
	cfg := &Config{Sink: SinkConfig{Kind: "influxdb"},
		InfluxDB: InfluxDBConfig{URL: "u", Token: "t", Org: "o"}}

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigurationError, got %T", err)
	}
	if cfgErr.Key != "INFLUXDB_BUCKET" {
		t.Errorf("Expected INFLUXDB_BUCKET, got %s", cfgErr.Key)
	}
}

func TestConfigValidateRun(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.InfluxDB = validInflux()
		cfg.Facilities = facility.Defaults()
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"valid", func(*Config) {}, false},
		{"local timezone", func(c *Config) { c.Run.Timezone = "Local" }, false},
		{"zero interval", func(c *Config) { c.Run.Interval = 0 }, true},
		{"negative duration", func(c *Config) { c.Run.Duration = -1 }, true},
		{"bad timezone", func(c *Config) { c.Run.Timezone = "Nowhere/Special" }, true},
		{"no facilities", func(c *Config) { c.Facilities = nil }, true},
		{"missing influx", func(c *Config) { c.InfluxDB = InfluxDBConfig{} }, true},
		{
			"oversubscribed facility",
			func(c *Config) {
				c.Facilities = append(c.Facilities, facility.Definition{
					Name:        "X",
					TotalSpaces: 5,
					SpaceTypes:  []facility.SpaceType{{Name: "normal", Capacity: 6}},
				})
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.ValidateRun()
			if tt.wantError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("Expected a configuration error, got %T: %v", err, err)
				}
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateQuery(t *testing.T) {
	cfg := &Config{Sink: SinkConfig{Kind: "sqlite"}}
	if err := cfg.ValidateQuery(); err != nil {
		t.Errorf("Expected no error for sqlite, got: %v", err)
	}

	cfg.Sink.Kind = "memory"
	if err := cfg.ValidateQuery(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected a configuration error for memory sink, got: %v", err)
	}

	cfg = &Config{Sink: SinkConfig{Kind: "influxdb"}}
	if err := cfg.ValidateQuery(); err == nil {
		t.Error("Expected error for unconfigured influxdb sink")
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgedge-parksim.yaml")

	configContent := `
log_level: "debug"

influxdb:
  url: "http://influx:8086"
  token: "file-token"
  org: "cesi"
  bucket: "parking"

sink:
  kind: "influxdb"
  measurement: "occupancy"

run:
  timezone: "UTC"
  interval: 30
  duration: 15
  metrics_addr: ":9108"

facilities:
  - name: "GARAGE"
    total_spaces: 20
    profile: "retail"
    space_types:
      - name: "normal"
        capacity: 18
      - name: "electrique"
        capacity: 2
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel mismatch: %s", cfg.LogLevel)
	}
	if cfg.InfluxDB.URL != "http://influx:8086" {
		t.Errorf("InfluxDB.URL mismatch: %s", cfg.InfluxDB.URL)
	}
	if cfg.InfluxDB.Token != "file-token" {
		t.Errorf("InfluxDB.Token mismatch: %s", cfg.InfluxDB.Token)
	}
	if cfg.Sink.Measurement != "occupancy" {
		t.Errorf("Sink.Measurement mismatch: %s", cfg.Sink.Measurement)
	}
	if cfg.Sink.Path != "parksim.db" {
		t.Errorf("Sink.Path default lost: %s", cfg.Sink.Path)
	}
	if cfg.Run.Timezone != "UTC" {
		t.Errorf("Run.Timezone mismatch: %s", cfg.Run.Timezone)
	}
	if cfg.Run.Interval != 30 {
		t.Errorf("Run.Interval mismatch: %d", cfg.Run.Interval)
	}
	if cfg.Run.Duration != 15 {
		t.Errorf("Run.Duration mismatch: %d", cfg.Run.Duration)
	}
	if cfg.Run.MetricsAddr != ":9108" {
		t.Errorf("Run.MetricsAddr mismatch: %s", cfg.Run.MetricsAddr)
	}

	if len(cfg.Facilities) != 1 {
		t.Fatalf("Expected 1 facility, got %d", len(cfg.Facilities))
	}
	f := cfg.Facilities[0]
	if f.Name != "GARAGE" || f.TotalSpaces != 20 || f.Profile != "retail" {
		t.Errorf("Facility mismatch: %+v", f)
	}
	if len(f.SpaceTypes) != 2 || f.SpaceTypes[0].Name != "normal" || f.SpaceTypes[1].Capacity != 2 {
		t.Errorf("Space types mismatch: %+v", f.SpaceTypes)
	}

	if err := cfg.ValidateRun(); err != nil {
		t.Errorf("Loaded config should be valid: %v", err)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgedge-parksim.yaml")
	content := `
influxdb:
  url: "http://file:8086"
  token: "file-token"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	t.Setenv("INFLUXDB_TOKEN", "env-token")
	t.Setenv("INFLUXDB_ORG", "env-org")
	t.Setenv("INFLUXDB_BUCKET", "env-bucket")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.InfluxDB.URL != "http://file:8086" {
		t.Errorf("Expected URL from file, got %s", cfg.InfluxDB.URL)
	}
	if cfg.InfluxDB.Token != "env-token" {
		t.Errorf("Expected token from env, got %s", cfg.InfluxDB.Token)
	}
	if cfg.InfluxDB.Org != "env-org" || cfg.InfluxDB.Bucket != "env-bucket" {
		t.Errorf("Expected org/bucket from env, got %s/%s", cfg.InfluxDB.Org, cfg.InfluxDB.Bucket)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	envPath := filepath.Join(t.TempDir(), ".env")
	content := "INFLUXDB_URL=http://dotenv:8086\nINFLUXDB_TOKEN=dotenv-token\nINFLUXDB_ORG=o\nINFLUXDB_BUCKET=b\n"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create env file: %v", err)
	}

	if err := LoadEnv(envPath); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.InfluxDB.URL != "http://dotenv:8086" {
		t.Errorf("Expected URL from .env, got %s", cfg.InfluxDB.URL)
	}
	if os.Getenv("INFLUXDB_TOKEN") != "dotenv-token" {
		t.Errorf("Expected INFLUXDB_TOKEN from .env, got %s", os.Getenv("INFLUXDB_TOKEN"))
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Missing .env should be ignored, got %v", err)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load should error when specified config file doesn't exist")
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load should not error with empty path, got: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if len(cfg.Facilities) != 2 {
		t.Errorf("Expected built-in catalog of 2 facilities, got %d", len(cfg.Facilities))
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `
influxdb: [invalid yaml
  that: won't parse
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestSinkSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InfluxDB = validInflux()
	cfg.Sink.Connection = "postgres://x"

	s := cfg.SinkSettings()
	if s.Kind != "influxdb" || s.InfluxDB.Bucket != "parking" || s.Connection != "postgres://x" {
		t.Errorf("Unexpected sink settings: %+v", s)
	}
	if s.Timezone != "Europe/Paris" {
		t.Errorf("Expected timezone Europe/Paris, got %s", s.Timezone)
	}
}

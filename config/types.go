package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so both TOML and YAML files can use strings
// such as "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses human readable duration strings.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration in time.Duration notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML renders the duration as a string scalar.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Server controls the HTTP listener.
type Server struct {
	Listen          string   `toml:"Listen" yaml:"listen"`
	ReadTimeout     Duration `toml:"ReadTimeout" yaml:"read_timeout"`
	WriteTimeout    Duration `toml:"WriteTimeout" yaml:"write_timeout"`
	IdleTimeout     Duration `toml:"IdleTimeout" yaml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"ShutdownTimeout" yaml:"shutdown_timeout"`
}

// Storage selects the persistence backend. DSN is a connection string for
// sqlite and postgres and a directory for leveldb.
type Storage struct {
	Driver string `toml:"Driver" yaml:"driver"`
	DSN    string `toml:"DSN" yaml:"dsn"`
}

// Auth configures bearer token verification.
type Auth struct {
	Enabled       bool     `toml:"Enabled" yaml:"enabled"`
	HMACSecret    string   `toml:"HMACSecret" yaml:"hmac_secret"`
	HMACSecretEnv string   `toml:"HMACSecretEnv" yaml:"hmac_secret_env"`
	Issuer        string   `toml:"Issuer" yaml:"issuer"`
	Audience      string   `toml:"Audience" yaml:"audience"`
	ClockSkew     Duration `toml:"ClockSkew" yaml:"clock_skew"`
}

// RateLimit bounds requests per client on mutating routes.
type RateLimit struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute" yaml:"requests_per_minute"`
	Burst             int     `toml:"Burst" yaml:"burst"`
}

// Telemetry configures OTLP export.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint" yaml:"endpoint"`
	Insecure    bool    `toml:"Insecure" yaml:"insecure"`
	Headers     string  `toml:"Headers" yaml:"headers"`
	Traces      bool    `toml:"Traces" yaml:"traces"`
	Metrics     bool    `toml:"Metrics" yaml:"metrics"`
	SampleRatio float64 `toml:"SampleRatio" yaml:"sample_ratio"`
}

// Platform seeds the marketplace configuration on first start. Addresses
// accept bech32 (roy1...) or 0x-prefixed hex.
type Platform struct {
	Authority      string `toml:"Authority" yaml:"authority"`
	Treasury       string `toml:"Treasury" yaml:"treasury"`
	PlatformFeeBps uint16 `toml:"PlatformFeeBps" yaml:"platform_fee_bps"`
}

// Logging controls log level and the optional rotated file.
type Logging struct {
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"max_size_mb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"max_age_days"`
}

// Events sizes the per-subscriber buffer of the event stream.
type Events struct {
	Buffer int `toml:"Buffer" yaml:"buffer"`
}

// Webhooks forwards committed marketplace events to an HTTP endpoint. An
// empty URL disables delivery. Types filters by event type prefix.
type Webhooks struct {
	URL         string   `toml:"URL" yaml:"url"`
	Secret      string   `toml:"Secret" yaml:"secret"`
	SecretEnv   string   `toml:"SecretEnv" yaml:"secret_env"`
	Types       []string `toml:"Types" yaml:"types"`
	MaxAttempts int      `toml:"MaxAttempts" yaml:"max_attempts"`
}

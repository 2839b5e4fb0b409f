package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for royaltyd.
type Config struct {
	Service   string    `toml:"Service" yaml:"service"`
	Env       string    `toml:"Env" yaml:"env"`
	Server    Server    `toml:"server" yaml:"server"`
	Storage   Storage   `toml:"storage" yaml:"storage"`
	Auth      Auth      `toml:"auth" yaml:"auth"`
	RateLimit RateLimit `toml:"rate_limit" yaml:"rate_limit"`
	Telemetry Telemetry `toml:"telemetry" yaml:"telemetry"`
	Platform  Platform  `toml:"platform" yaml:"platform"`
	Logging   Logging   `toml:"logging" yaml:"logging"`
	Events    Events    `toml:"events" yaml:"events"`
	Webhooks  Webhooks  `toml:"webhooks" yaml:"webhooks"`
}

// Load loads the configuration from the given path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as TOML. A missing file is
// replaced by a freshly generated default.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0])
		}
	}

	applyDefaults(cfg)
	if err := cfg.Webhooks.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Auth.normalise(); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service) == "" {
		cfg.Service = "royaltyd"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8090"
	}
	if cfg.Server.ReadTimeout.Duration == 0 {
		cfg.Server.ReadTimeout.Duration = 15 * time.Second
	}
	if cfg.Server.WriteTimeout.Duration == 0 {
		cfg.Server.WriteTimeout.Duration = 15 * time.Second
	}
	if cfg.Server.IdleTimeout.Duration == 0 {
		cfg.Server.IdleTimeout.Duration = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout.Duration == 0 {
		cfg.Server.ShutdownTimeout.Duration = 10 * time.Second
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "leveldb"
	}
	if cfg.Storage.Driver == "leveldb" && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "./royalty-data"
	}
	if cfg.Auth.ClockSkew.Duration <= 0 {
		cfg.Auth.ClockSkew.Duration = 2 * time.Minute
	}
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit.RequestsPerMinute = 120
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 20
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Events.Buffer <= 0 {
		cfg.Events.Buffer = 64
	}
	if cfg.Webhooks.MaxAttempts <= 0 {
		cfg.Webhooks.MaxAttempts = 5
	}
}

func (a *Auth) normalise() error {
	a.HMACSecret = strings.TrimSpace(a.HMACSecret)
	a.HMACSecretEnv = strings.TrimSpace(a.HMACSecretEnv)
	if a.HMACSecret != "" || a.HMACSecretEnv == "" {
		return nil
	}
	value := strings.TrimSpace(os.Getenv(a.HMACSecretEnv))
	if value == "" {
		return fmt.Errorf("hmac_secret_env %s is empty", a.HMACSecretEnv)
	}
	a.HMACSecret = value
	return nil
}

func (w *Webhooks) normalise() error {
	w.URL = strings.TrimSpace(w.URL)
	w.Secret = strings.TrimSpace(w.Secret)
	w.SecretEnv = strings.TrimSpace(w.SecretEnv)
	if w.Secret != "" || w.SecretEnv == "" {
		return nil
	}
	value := strings.TrimSpace(os.Getenv(w.SecretEnv))
	if value == "" {
		return fmt.Errorf("webhooks secret_env %s is empty", w.SecretEnv)
	}
	w.Secret = value
	return nil
}

// createDefault creates and saves a default configuration file with a fresh
// random signing secret.
func createDefault(path string) (*Config, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	cfg := &Config{
		Env: "local",
		Auth: Auth{
			Enabled:    true,
			HMACSecret: hex.EncodeToString(secret),
			Issuer:     "royaltyhub",
		},
	}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

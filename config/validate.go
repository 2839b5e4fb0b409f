package config

import (
	"fmt"
	"strings"

	"royaltyhub/crypto"
	"royaltyhub/native/royalty"
)

var supportedDrivers = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"leveldb":  {},
	"memory":   {},
}

// Validate rejects configurations royaltyd cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		return fmt.Errorf("server: listen address must be configured")
	}
	if _, ok := supportedDrivers[cfg.Storage.Driver]; !ok {
		return fmt.Errorf("storage: unsupported driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver != "memory" && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return fmt.Errorf("storage: dsn must be configured for %s", cfg.Storage.Driver)
	}
	if cfg.Auth.Enabled && cfg.Auth.HMACSecret == "" {
		return fmt.Errorf("auth: hmac_secret must be configured when auth is enabled")
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: sample_ratio must be within [0,1]")
	}
	if cfg.Webhooks.URL != "" && cfg.Webhooks.Secret == "" {
		return fmt.Errorf("webhooks: secret must be configured when url is set")
	}
	return cfg.Platform.validate()
}

func (p Platform) validate() error {
	authority := strings.TrimSpace(p.Authority)
	treasury := strings.TrimSpace(p.Treasury)
	if authority == "" && treasury == "" {
		return nil
	}
	if authority == "" || treasury == "" {
		return fmt.Errorf("platform: authority and treasury must be configured together")
	}
	if _, err := crypto.ParseAddress(authority); err != nil {
		return fmt.Errorf("platform: authority: %w", err)
	}
	if _, err := crypto.ParseAddress(treasury); err != nil {
		return fmt.Errorf("platform: treasury: %w", err)
	}
	if p.PlatformFeeBps > royalty.MaxPlatformFeeBps {
		return fmt.Errorf("platform: platform_fee_bps %d exceeds %d", p.PlatformFeeBps, royalty.MaxPlatformFeeBps)
	}
	return nil
}

// Bootstrap returns the decoded platform seed. ok is false when no platform
// section is configured.
func (p Platform) Bootstrap() (authority, treasury [20]byte, ok bool, err error) {
	if strings.TrimSpace(p.Authority) == "" {
		return authority, treasury, false, nil
	}
	if authority, err = crypto.ParseAddress(p.Authority); err != nil {
		return authority, treasury, false, err
	}
	if treasury, err = crypto.ParseAddress(p.Treasury); err != nil {
		return authority, treasury, false, err
	}
	return authority, treasury, true, nil
}

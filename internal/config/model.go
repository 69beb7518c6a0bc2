package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const CurrentConfigVersion = 1

// Config is the root configuration structure loaded from the config
// file (JSON or YAML).
type Config struct {
	Version int          `json:"version"`
	System  SystemConfig `json:"system"`
}

type SystemConfig struct {
	BindAddress string `json:"bind_address"`
	// PublicBaseURL is the externally visible base URL used to build
	// the relay URLs returned to registrants. The SENTRYBRIDGE_PUBLIC_URL
	// environment variable overrides it.
	PublicBaseURL string `json:"public_base_url"`
	DatabasePath  string `json:"database_path"`
	// DeliveryTimeout bounds each outbound Slack call, in seconds.
	DeliveryTimeout int    `json:"delivery_timeout"`
	LogLevel        string `json:"log_level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: CurrentConfigVersion,
		System: SystemConfig{
			BindAddress:     ":8080",
			PublicBaseURL:   "http://localhost:8080",
			DatabasePath:    "sentrybridge.db",
			DeliveryTimeout: 10,
			LogLevel:        "info",
		},
	}
}

// ApplyDefaults fills zero-value fields with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.System.BindAddress == "" {
		c.System.BindAddress = d.System.BindAddress
	}
	if c.System.PublicBaseURL == "" {
		c.System.PublicBaseURL = d.System.PublicBaseURL
	}
	if c.System.DatabasePath == "" {
		c.System.DatabasePath = d.System.DatabasePath
	}
	if c.System.DeliveryTimeout <= 0 {
		c.System.DeliveryTimeout = d.System.DeliveryTimeout
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = d.System.LogLevel
	}
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	var errs []string

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.System.LogLevel] {
		errs = append(errs, fmt.Sprintf("system.log_level must be one of: debug, info, warn, error (got %q)", c.System.LogLevel))
	}

	if u, err := url.Parse(c.System.PublicBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, "system.public_base_url must be a valid http(s) URL")
	}

	if c.System.DeliveryTimeout <= 0 {
		errs = append(errs, "system.delivery_timeout must be > 0 seconds")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

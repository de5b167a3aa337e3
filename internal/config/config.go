// Package config loads and validates the driver's single JSON configuration
// file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// AuthType selects how outbound poll requests authenticate and how inbound
// push requests are checked.
type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "api_key"
)

// ErrorFallback selects what the driver loop does when a poll fails.
type ErrorFallback string

const (
	FallbackKeepLast     ErrorFallback = "keep_last"
	FallbackBlank        ErrorFallback = "blank"
	FallbackErrorMessage ErrorFallback = "error_message"
)

// Auth carries the credential material for both outbound poll requests and
// inbound push authentication - the spec names a single shared credential,
// so one Auth block serves both directions.
type Auth struct {
	Type       AuthType `json:"type"`
	Token      string   `json:"token,omitempty"`
	Key        string   `json:"key,omitempty"`
	HeaderName string   `json:"header_name,omitempty"`
}

func (a Auth) validate() error {
	switch a.Type {
	case AuthNone:
		return nil
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("config: auth.type=bearer requires auth.token")
		}
	case AuthAPIKey:
		if a.Key == "" {
			return fmt.Errorf("config: auth.type=api_key requires auth.key")
		}
		if a.HeaderName == "" {
			return fmt.Errorf("config: auth.type=api_key requires auth.header_name")
		}
	default:
		return fmt.Errorf("config: unknown auth.type %q", a.Type)
	}
	return nil
}

// Config is the single JSON document the driver loads at startup, mirroring
// spec.md section 6's key table.
type Config struct {
	PollEndpoint   string `json:"poll_endpoint"`
	PollIntervalMS int    `json:"poll_interval_ms"`

	EnablePush bool   `json:"enable_push"`
	PushHost   string `json:"push_host"`
	PushPort   int    `json:"push_port"`

	Auth Auth `json:"auth"`

	SerialDevice   string `json:"serial_device"`
	SerialBaudRate int    `json:"serial_baudrate"`

	ModuleLayout [][]byte `json:"module_layout"`
	ModuleWidth  int      `json:"module_width"`
	ModuleHeight int      `json:"module_height"`

	ErrorFallback ErrorFallback `json:"error_fallback"`
	DevMode       bool          `json:"dev_mode"`
	LogLevel      string        `json:"log_level"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

// Validate enforces the field-level constraints the spec's configuration
// table implies: required endpoints, sane ports, interval floors, and
// recognized enum values. There is no schema-validation library anywhere in
// the retrieved pack, so this is hand-rolled field-by-field checking rather
// than a declarative rule set.
func (c *Config) Validate() error {
	if c.PollEndpoint == "" {
		return fmt.Errorf("poll_endpoint must be non-empty")
	}
	if c.PollIntervalMS < 1000 {
		return fmt.Errorf("poll_interval_ms must be >= 1000, got %d", c.PollIntervalMS)
	}
	if c.EnablePush {
		if c.PushPort <= 0 || c.PushPort > 65535 {
			return fmt.Errorf("push_port must be in [1, 65535], got %d", c.PushPort)
		}
	}
	if err := c.Auth.validate(); err != nil {
		return err
	}
	if c.SerialDevice == "" && !c.DevMode {
		return fmt.Errorf("serial_device must be non-empty unless dev_mode is true")
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("serial_baudrate must be positive, got %d", c.SerialBaudRate)
	}
	if len(c.ModuleLayout) == 0 {
		return fmt.Errorf("module_layout must be non-empty")
	}
	if c.ModuleWidth <= 0 || c.ModuleHeight <= 0 {
		return fmt.Errorf("module_width and module_height must be positive")
	}
	switch c.ErrorFallback {
	case FallbackKeepLast, FallbackBlank, FallbackErrorMessage:
	default:
		return fmt.Errorf("error_fallback must be one of keep_last, blank, error_message, got %q", c.ErrorFallback)
	}
	return nil
}

// Package config loads the server configuration from a YAML file with
// sensible in-code defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hub      HubConfig      `yaml:"hub"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type HubConfig struct {
	// AgentWait bounds how long a forward blocks waiting for a capture
	// agent to connect before failing with ErrCaptureAgentUnavailable.
	AgentWait time.Duration `yaml:"agent_wait"`

	// SendBuffer is the per-client outbound queue size.
	SendBuffer int `yaml:"send_buffer"`
}

type AuthConfig struct {
	// AdminUser and AdminPassword seed the user store on first start.
	AdminUser     string        `yaml:"admin_user"`
	AdminPassword string        `yaml:"admin_password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// UnmarshalYAML parses durations from strings like "5s". yaml.v3 has no
// native time.Duration support, so raw values are decoded first and
// converted explicitly. Absent fields keep their defaults.
func (h *HubConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		AgentWait  string `yaml:"agent_wait"`
		SendBuffer *int   `yaml:"send_buffer"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.AgentWait != "" {
		d, err := time.ParseDuration(raw.AgentWait)
		if err != nil {
			return fmt.Errorf("invalid agent_wait: %w", err)
		}
		h.AgentWait = d
	}
	if raw.SendBuffer != nil {
		h.SendBuffer = *raw.SendBuffer
	}
	return nil
}

func (a *AuthConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		AdminUser     string `yaml:"admin_user"`
		AdminPassword string `yaml:"admin_password"`
		SessionTTL    string `yaml:"session_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.AdminUser != "" {
		a.AdminUser = raw.AdminUser
	}
	if raw.AdminPassword != "" {
		a.AdminPassword = raw.AdminPassword
	}
	if raw.SessionTTL != "" {
		d, err := time.ParseDuration(raw.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl: %w", err)
		}
		a.SessionTTL = d
	}
	return nil
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Database: DatabaseConfig{
			Path: "data/relay.db",
		},
		Hub: HubConfig{
			AgentWait:  5 * time.Second,
			SendBuffer: 256,
		},
		Auth: AuthConfig{
			AdminUser:     "root",
			AdminPassword: "changeme",
			SessionTTL:    12 * time.Hour,
		},
	}
}

// Load reads the YAML config at path on top of the defaults. A missing file
// is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

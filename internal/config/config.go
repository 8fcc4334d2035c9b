// Package config loads the client's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the top-level configuration for the bizsim client.
type ClientConfig struct {
	Server      ServerConfig     `yaml:"server"`
	Credentials CredentialConfig `yaml:"credentials"`
	Connection  ConnectionConfig `yaml:"connection"`
	Relay       RelayConfig      `yaml:"relay"`
	Logging     LoggingConfig    `yaml:"logging"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}

// ServerConfig locates the game server.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Transport string `yaml:"transport"` // "tcp" or "websocket"
	WSPath    string `yaml:"ws_path"`
}

// CredentialConfig is the player's login.
type CredentialConfig struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

// ConnectionConfig tunes reconnect timing and socket options.
type ConnectionConfig struct {
	ReconnectWindow   time.Duration `yaml:"reconnect_window"`
	IdleTick          time.Duration `yaml:"idle_tick"`
	WatchTick         time.Duration `yaml:"watch_tick"`
	KeepAliveIdle     time.Duration `yaml:"keepalive_idle"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	KeepAliveCount    int           `yaml:"keepalive_count"`
	NoDelay           *bool         `yaml:"no_delay"`
	ReadBufferSize    int           `yaml:"read_buffer_size"`
}

// RelayConfig sizes the event relay.
type RelayConfig struct {
	InitialCapacity int `yaml:"initial_capacity"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // empty: stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig controls the debug HTTP server. Port 0 disables it.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// Load reads path, expands ${VAR} references and parses the YAML.
func Load(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references in data and parses the YAML.
func Parse(data []byte) (*ClientConfig, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg ClientConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads path and fills unset fields with defaults.
func LoadWithDefaults(path string) (*ClientConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads path, applies defaults and validates the result.
func LoadAndValidate(path string) (*ClientConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  host: game.example.com
  port: 5001
credentials:
  login: alice
  password: secret
`

func TestLoad(t *testing.T) {
	yaml := `
server:
  host: game.example.com
  port: 5001
  transport: websocket
  ws_path: /bizsim
credentials:
  login: alice
  password: secret
connection:
  reconnect_window: 15s
  keepalive_count: 5
  no_delay: false
logging:
  level: debug
  file: /tmp/bizsim.log
metrics:
  port: 9100
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "game.example.com" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "game.example.com")
	}
	if cfg.Server.Transport != "websocket" || cfg.Server.WSPath != "/bizsim" {
		t.Errorf("Server transport = %q %q", cfg.Server.Transport, cfg.Server.WSPath)
	}
	if cfg.Connection.ReconnectWindow != 15*time.Second {
		t.Errorf("Connection.ReconnectWindow = %v, want 15s", cfg.Connection.ReconnectWindow)
	}
	if cfg.Connection.NoDelay == nil || *cfg.Connection.NoDelay {
		t.Errorf("Connection.NoDelay = %v, want explicit false", cfg.Connection.NoDelay)
	}
	if cfg.Logging.File != "/tmp/bizsim.log" {
		t.Errorf("Logging.File = %q", cfg.Logging.File)
	}
	if cfg.Metrics.Port != 9100 {
		t.Errorf("Metrics.Port = %d, want 9100", cfg.Metrics.Port)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BIZSIM_PASSWORD", "secret123")

	yaml := `
server:
  host: localhost
credentials:
  login: alice
  password: ${TEST_BIZSIM_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Credentials.Password != "secret123" {
		t.Errorf("Credentials.Password = %q, want %q", cfg.Credentials.Password, "secret123")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file should fail")
	}

	path := writeTempFile(t, "server: [not a map")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("Load of bad YAML error = %v, want parse config error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, validYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Server.Port != 5001 {
		t.Errorf("Server.Port = %d, want explicit 5001", cfg.Server.Port)
	}
	if cfg.Server.Transport != DefaultTransport {
		t.Errorf("Server.Transport = %q, want default %q", cfg.Server.Transport, DefaultTransport)
	}
	if cfg.Connection.ReconnectWindow != DefaultReconnectWindow {
		t.Errorf("Connection.ReconnectWindow = %v, want default %v", cfg.Connection.ReconnectWindow, DefaultReconnectWindow)
	}
	if cfg.Connection.IdleTick != DefaultIdleTick || cfg.Connection.WatchTick != DefaultWatchTick {
		t.Errorf("ticks = %v/%v, want %v/%v", cfg.Connection.IdleTick, cfg.Connection.WatchTick, DefaultIdleTick, DefaultWatchTick)
	}
	if cfg.Connection.KeepAliveCount != DefaultKeepAliveCount {
		t.Errorf("Connection.KeepAliveCount = %d, want default %d", cfg.Connection.KeepAliveCount, DefaultKeepAliveCount)
	}
	if cfg.Connection.NoDelay == nil || *cfg.Connection.NoDelay != DefaultNoDelay {
		t.Errorf("Connection.NoDelay = %v, want default %v", cfg.Connection.NoDelay, DefaultNoDelay)
	}
	if cfg.Relay.InitialCapacity != DefaultRelayCapacity {
		t.Errorf("Relay.InitialCapacity = %d, want default %d", cfg.Relay.InitialCapacity, DefaultRelayCapacity)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging = %q/%q, want defaults", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Metrics.Port != 0 || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %d %q, want disabled with default path", cfg.Metrics.Port, cfg.Metrics.Path)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, validYAML)
	if _, err := LoadAndValidate(path); err != nil {
		t.Errorf("LoadAndValidate failed: %v", err)
	}

	path = writeTempFile(t, "server:\n  host: localhost\n")
	_, err := LoadAndValidate(path)
	if err == nil || !strings.Contains(err.Error(), "credentials.login is required") {
		t.Errorf("LoadAndValidate error = %v, want missing login", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() ClientConfig {
		cfg := ClientConfig{
			Server:      ServerConfig{Host: "localhost"},
			Credentials: CredentialConfig{Login: "alice", Password: "secret"},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{
			name:    "missing host",
			mutate:  func(c *ClientConfig) { c.Server.Host = "" },
			wantErr: "server.host is required",
		},
		{
			name:    "port out of range",
			mutate:  func(c *ClientConfig) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "unknown transport",
			mutate:  func(c *ClientConfig) { c.Server.Transport = "udp" },
			wantErr: `server.transport must be tcp or websocket, got "udp"`,
		},
		{
			name:    "missing login",
			mutate:  func(c *ClientConfig) { c.Credentials.Login = "" },
			wantErr: "credentials.login is required",
		},
		{
			name:    "login with at sign",
			mutate:  func(c *ClientConfig) { c.Credentials.Login = "a@b" },
			wantErr: "credentials.login must not contain '@'",
		},
		{
			name:    "missing password",
			mutate:  func(c *ClientConfig) { c.Credentials.Password = "" },
			wantErr: "credentials.password is required",
		},
		{
			name:    "idle tick exceeds watch tick",
			mutate:  func(c *ClientConfig) { c.Connection.IdleTick = time.Minute },
			wantErr: "connection.idle_tick (1m0s) cannot exceed watch_tick (10s)",
		},
		{
			name:    "negative window",
			mutate:  func(c *ClientConfig) { c.Connection.ReconnectWindow = -time.Second },
			wantErr: "connection.reconnect_window must be > 0",
		},
		{
			name:    "bad log level",
			mutate:  func(c *ClientConfig) { c.Logging.Level = "trace" },
			wantErr: `logging.level must be debug, info, warn or error, got "trace"`,
		},
		{
			name:    "bad metrics path",
			mutate:  func(c *ClientConfig) { c.Metrics.Path = "metrics" },
			wantErr: `metrics.path must start with '/', got "metrics"`,
		},
		{
			name:    "valid config",
			mutate:  func(c *ClientConfig) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestWatch(t *testing.T) {
	path := writeTempFile(t, validYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *ClientConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(cfg *ClientConfig) { reloaded <- cfg })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// Invalid content is ignored.
	if err := os.WriteFile(path, []byte("server:\n  host: x\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config delivered: %+v", cfg)
	default:
	}

	updated := strings.Replace(validYAML, "password: secret", "password: rotated", 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Credentials.Password != "rotated" {
			t.Errorf("reloaded password = %q, want %q", cfg.Credentials.Password, "rotated")
		}
		if cfg.Connection.ReconnectWindow != DefaultReconnectWindow {
			t.Error("reloaded config missing defaults")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	yaml := `
server:
  url: /push?room=lobby
  base_url: https://push.example.com
  headers:
    Authorization: Bearer token123
connection:
  heartbeat_interval: 15s
  reconnect_base_delay: 2s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.URL != "/push?room=lobby" {
		t.Errorf("Server.URL = %q, want %q", cfg.Server.URL, "/push?room=lobby")
	}
	if cfg.Server.BaseURL != "https://push.example.com" {
		t.Errorf("Server.BaseURL = %q, want %q", cfg.Server.BaseURL, "https://push.example.com")
	}
	if cfg.Server.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Authorization header = %q, want %q", cfg.Server.Headers["Authorization"], "Bearer token123")
	}
	if cfg.Connection.HeartbeatInterval != 15*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 15s", cfg.Connection.HeartbeatInterval)
	}
	if cfg.Connection.ReconnectBaseDelay != 2*time.Second {
		t.Errorf("ReconnectBaseDelay = %v, want 2s", cfg.Connection.ReconnectBaseDelay)
	}
}

func TestParse_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_PUSH_TOKEN", "secret123")

	yaml := `
server:
  url: wss://push.example.com/push
  headers:
    Authorization: Bearer ${TEST_PUSH_TOKEN}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Headers["Authorization"] != "Bearer secret123" {
		t.Errorf("Authorization header = %q, want expanded env var", cfg.Server.Headers["Authorization"])
	}
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	yaml := `
server:
  url: wss://push.example.com/push
  heartbeat_interval: 15s
`
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Error("expected error for a key in the wrong section, got nil")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Server.URL != "" {
		t.Errorf("Server.URL = %q, want empty", cfg.Server.URL)
	}
}

func TestLoad(t *testing.T) {
	yaml := `
server:
  url: /push
  base_url: https://push.example.com
recorder:
  enabled: true
  postgres:
    host: localhost
    name: frames
    user: pushsock
    password: pw
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Connection.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("HeartbeatInterval = %v, want default %v", cfg.Connection.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.Connection.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("ReconnectBaseDelay = %v, want default %v", cfg.Connection.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Recorder.BatchSize != DefaultBatchSize {
		t.Errorf("Recorder.BatchSize = %d, want default %d", cfg.Recorder.BatchSize, DefaultBatchSize)
	}
	if cfg.Recorder.Postgres.Port != DefaultDBPort {
		t.Errorf("Recorder.Postgres.Port = %d, want default %d", cfg.Recorder.Postgres.Port, DefaultDBPort)
	}
	if cfg.Recorder.Postgres.SSLMode != DefaultDBSSLMode {
		t.Errorf("Recorder.Postgres.SSLMode = %q, want default %q", cfg.Recorder.Postgres.SSLMode, DefaultDBSSLMode)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing url",
			yaml: `
server:
  base_url: https://push.example.com
`,
		},
		{
			name: "relative url without base",
			yaml: `
server:
  url: /push
`,
		},
		{
			name: "bad base scheme",
			yaml: `
server:
  url: /push
  base_url: ftp://push.example.com
`,
		},
		{
			name: "recorder enabled without database",
			yaml: `
server:
  url: wss://push.example.com/push
recorder:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.yaml)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

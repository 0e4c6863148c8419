package config

import "time"

// Config is the root configuration for a pushsock client instance.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Recorder   RecorderConfig   `yaml:"recorder"`
}

// ServerConfig identifies the push endpoint.
type ServerConfig struct {
	// URL is the connection target: an absolute ws:// or wss:// URL, or
	// a path (optionally with a query string) relative to BaseURL.
	URL string `yaml:"url"`

	// BaseURL is the http:// or https:// origin used to resolve a
	// relative URL.
	BaseURL string `yaml:"base_url"`

	// Headers holds extra handshake headers (e.g. Authorization).
	Headers map[string]string `yaml:"headers"`
}

// ConnectionConfig holds Connection Manager timing settings.
type ConnectionConfig struct {
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
}

// RecorderConfig holds the optional frame recorder settings.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	Postgres      DBConfig      `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHeartbeatInterval  = 30 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 100
	DefaultFlushInterval      = 1 * time.Second
	DefaultBufferSize         = 1000
)

func (c *Config) applyDefaults() {
	// Connection defaults
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultBufferSize
	}
	applyDBDefaults(&c.Recorder.Postgres)
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}

	absolute := strings.HasPrefix(c.Server.URL, "ws://") ||
		strings.HasPrefix(c.Server.URL, "wss://")
	if !absolute {
		if c.Server.BaseURL == "" {
			return errors.New("server.base_url is required for a relative server.url")
		}
		if !strings.HasPrefix(c.Server.BaseURL, "http://") &&
			!strings.HasPrefix(c.Server.BaseURL, "https://") {
			return fmt.Errorf("server.base_url must be http:// or https://, got %q", c.Server.BaseURL)
		}
	}

	if c.Connection.HeartbeatInterval < 0 {
		return errors.New("connection.heartbeat_interval must not be negative")
	}
	if c.Connection.ReconnectBaseDelay < 0 {
		return errors.New("connection.reconnect_base_delay must not be negative")
	}
	if c.Connection.ReconnectMaxDelay < 0 {
		return errors.New("connection.reconnect_max_delay must not be negative")
	}

	if c.Recorder.Enabled {
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if c.Recorder.BufferSize < 1 {
			return errors.New("recorder.buffer_size must be >= 1")
		}
		if err := c.Recorder.Postgres.validate("recorder.postgres"); err != nil {
			return err
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// Package config loads and validates YAML configuration for a pushsock
// client instance.
//
// Files may reference environment variables with ${VAR} syntax; they are
// expanded before parsing.
package config

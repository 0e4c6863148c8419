package connection

import (
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	// ErrNotConnected is returned by Send when no connection is live.
	// Sending while disconnected is a caller contract violation, not a
	// recoverable runtime condition; nothing is queued or retried.
	ErrNotConnected = errors.New("not connected")
)

// State is the externally observable connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// heartbeatFrame is the fixed keepalive frame sent while connected.
// Wire form: {"type":"heartbeat"}
type heartbeatFrame struct {
	Type string `json:"type"`
}

// Default values for optional configuration fields.
const (
	DefaultHeartbeatInterval  = 30 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
)

// Config configures a Connection Manager.
type Config struct {
	// URL is the connection target: an absolute ws:// or wss:// URL, or a
	// path (optionally with a query string) resolved against BaseURL.
	URL string

	// BaseURL is the http:// or https:// origin used to resolve a
	// relative URL. Ignored when URL is already absolute.
	BaseURL string

	// Header holds optional extra handshake headers.
	Header http.Header

	// HeartbeatInterval is the fixed cadence of the keepalive frame.
	HeartbeatInterval time.Duration

	// ReconnectBaseDelay is the backoff unit: the Nth consecutive
	// reconnect attempt waits N times this delay.
	ReconnectBaseDelay time.Duration

	// ReconnectMaxDelay caps the backoff delay. Zero means no cap; the
	// attempt counter resets on every successful open, so growth is
	// bounded by outage length.
	ReconnectMaxDelay time.Duration

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	// WriteTimeout is the write deadline for sends.
	WriteTimeout time.Duration

	// OnMessage is invoked for every inbound frame, verbatim and in
	// arrival order. Nil discards inbound frames.
	OnMessage func(payload string)

	// OnStateChange is invoked on every state transition. Optional.
	OnStateChange func(s State)
}

// DefaultConfig returns sensible defaults. URL and BaseURL must still be
// set by the caller.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:  DefaultHeartbeatInterval,
		ReconnectBaseDelay: DefaultReconnectBaseDelay,
		HandshakeTimeout:   DefaultHandshakeTimeout,
		WriteTimeout:       DefaultWriteTimeout,
	}
}

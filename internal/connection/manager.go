package connection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pushsock/pushsock/internal/wsurl"
)

// Manager owns a single WebSocket connection and its recovery state
// machine. It is safe for concurrent use; all lifecycle transitions are
// serialized on an internal mutex.
//
// gorilla/websocket surfaces transport errors as the read error that
// ends the connection, so the "close" event here is the read loop
// terminating; there is no separate error event that could change state
// on its own.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	clock  clock

	// Write serialization (heartbeat vs Send)
	writeMu sync.Mutex

	// State, guarded by mu
	mu          sync.RWMutex
	state       State
	conn        *websocket.Conn
	dialing     bool
	intentional bool
	attempts    int
	gen         uint64
	heartbeat   timer
	reconnect   timer
}

// NewManager creates a Connection Manager. Zero-valued durations in cfg
// are filled from DefaultConfig.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.ReconnectBaseDelay == 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	return &Manager{
		cfg:    cfg,
		logger: logger,
		clock:  systemClock{},
		state:  StateDisconnected,
	}
}

// Connect resolves the configured URL and dials asynchronously. It
// returns immediately; the open (or failure) outcome arrives later via
// state transitions. Calling Connect while a connection or dial attempt
// is live is a no-op. A synchronous error is returned only when the URL
// cannot be resolved, which is a configuration problem.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked()
}

// connectLocked starts a dial attempt. Caller holds m.mu.
func (m *Manager) connectLocked() error {
	if m.conn != nil || m.dialing {
		return nil
	}

	target, err := wsurl.Resolve(m.cfg.URL, m.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("resolve url: %w", err)
	}

	// A manual Connect during backoff supersedes the pending attempt.
	m.cancelReconnectLocked()

	m.intentional = false
	m.gen++
	m.dialing = true

	go m.dial(m.gen, target)

	return nil
}

// Disconnect closes the connection with a normal-closure code and
// cancels any pending heartbeat and reconnect timers. The closure is
// marked intentional, so no reconnect is scheduled.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.intentional = true
	m.gen++ // retire the live socket and any in-flight dial
	m.dialing = false
	m.stopHeartbeatLocked()
	m.cancelReconnectLocked()
	conn := m.conn
	m.conn = nil
	notify := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(m.cfg.WriteTimeout)
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		conn.Close()
		m.logger.Debug("disconnected")
	}

	if notify != nil {
		notify()
	}
}

// Send transmits payload verbatim over the live connection. It returns
// ErrNotConnected, with no side effect, while disconnected.
func (m *Manager) Send(payload string) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	return m.write(conn, []byte(payload))
}

// IsConnected returns whether the connection is currently open.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateConnected
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// dial performs the blocking WebSocket handshake for one attempt.
func (m *Manager) dial(gen uint64, target string) {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.Dial(target, m.cfg.Header)

	m.mu.Lock()
	if m.gen != gen {
		// Superseded by Disconnect or a newer Connect.
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	m.dialing = false

	if err != nil {
		// A failed dial counts as an abnormal closure.
		m.logger.Warn("dial failed", "url", target, "error", err)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return
	}

	m.conn = conn
	m.attempts = 0
	notify := m.setStateLocked(StateConnected)
	m.armHeartbeatLocked(gen)
	m.mu.Unlock()

	m.logger.Debug("websocket connected", "url", target)

	if notify != nil {
		notify()
	}

	go m.readLoop(gen, conn)
}

// readLoop forwards inbound frames until the connection closes.
func (m *Manager) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}

		m.mu.RLock()
		current := m.gen == gen
		onMessage := m.cfg.OnMessage
		m.mu.RUnlock()

		if !current {
			return
		}
		if onMessage != nil {
			onMessage(string(data))
		}
	}
}

// handleClose reacts to the connection ending. Closures not caused by a
// local Disconnect schedule a reconnect attempt with linear backoff.
func (m *Manager) handleClose(gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		// A superseded socket's events are ignored.
		m.mu.Unlock()
		return
	}

	m.conn.Close()
	m.conn = nil
	m.stopHeartbeatLocked()
	notify := m.setStateLocked(StateDisconnected)

	if m.intentional {
		m.mu.Unlock()
		if notify != nil {
			notify()
		}
		return
	}

	m.logger.Warn("connection closed", "error", cause)
	m.scheduleReconnectLocked()
	m.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// scheduleReconnectLocked arms the reconnect timer. The Nth consecutive
// attempt waits N times the base delay; the counter resets only on a
// successful open. Caller holds m.mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnect != nil {
		// Only one reconnect attempt is ever pending.
		return
	}

	m.attempts++
	delay := time.Duration(m.attempts) * m.cfg.ReconnectBaseDelay
	if m.cfg.ReconnectMaxDelay > 0 && delay > m.cfg.ReconnectMaxDelay {
		delay = m.cfg.ReconnectMaxDelay
	}

	m.logger.Info("scheduling reconnect", "attempt", m.attempts, "delay", delay)

	m.reconnect = m.clock.AfterFunc(delay, func() {
		m.mu.Lock()
		m.reconnect = nil
		if m.intentional {
			m.mu.Unlock()
			return
		}
		if err := m.connectLocked(); err != nil {
			m.logger.Error("reconnect failed", "error", err)
		}
		m.mu.Unlock()
	})
}

// armHeartbeatLocked arms the single heartbeat timer. Caller holds m.mu.
func (m *Manager) armHeartbeatLocked(gen uint64) {
	m.heartbeat = m.clock.AfterFunc(m.cfg.HeartbeatInterval, func() {
		m.beat(gen)
	})
}

// beat sends one heartbeat frame and re-arms the timer.
func (m *Manager) beat(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.armHeartbeatLocked(gen)
	m.mu.Unlock()

	data, _ := json.Marshal(heartbeatFrame{Type: "heartbeat"})
	if err := m.write(conn, data); err != nil {
		// Not handled specially: the failure surfaces as a read error
		// and closes the same socket.
		m.logger.Debug("heartbeat send failed", "error", err)
		return
	}
	m.logger.Debug("heartbeat sent")
}

// write serializes frame writes across Send and the heartbeat timer.
func (m *Manager) write(conn *websocket.Conn, data []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// stopHeartbeatLocked cancels the heartbeat timer. Caller holds m.mu.
func (m *Manager) stopHeartbeatLocked() {
	if m.heartbeat != nil {
		m.heartbeat.Stop()
		m.heartbeat = nil
	}
}

// cancelReconnectLocked cancels a pending reconnect. Caller holds m.mu.
func (m *Manager) cancelReconnectLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

// setStateLocked updates the state and, on a transition, returns the
// notification to run after m.mu is released. Caller holds m.mu.
func (m *Manager) setStateLocked(s State) func() {
	if m.state == s {
		return nil
	}
	m.state = s

	cb := m.cfg.OnStateChange
	if cb == nil {
		return nil
	}
	return func() { cb(s) }
}

// Package connection implements the resilient Connection Manager.
//
// The Connection Manager:
//   - Maintains a single WebSocket connection to a push endpoint
//   - Recovers from abnormal closures with linear backoff (1s, 2s, 3s, ...)
//   - Sends a fixed JSON heartbeat frame while connected
//   - Forwards inbound frames verbatim, in arrival order
//   - Exposes connect/disconnect/send and the current connection state
//
// Timers are created through an internal clock abstraction so reconnect
// and heartbeat scheduling is deterministic under a fake clock in tests.
package connection

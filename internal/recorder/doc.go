// Package recorder implements the optional frame recorder: an
// append-only batch writer that persists inbound frames to PostgreSQL
// for later inspection.
//
// Each run is identified by a session UUID; frames carry a per-session
// sequence number so arrival order survives in the table. Recording is
// best-effort and never blocks the connection's read path: when the
// intake buffer is full, frames are dropped with a warning.
package recorder

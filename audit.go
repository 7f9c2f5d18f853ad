package goIdentity

import (
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goIdentity/internal/audit"
)

// AuditEvent is one security-relevant outcome of Register, Login or
// VerifyToken. Metadata never contains passwords, hashes or tokens.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's background worker.
// Emit must be safe to call from that single goroutine; it is never called
// concurrently by one Engine.
type AuditSink = audit.Sink

// NoOpSink discards audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel, mostly for tests.
type ChannelSink = audit.ChannelSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewLogSink returns a sink that writes each event as a structured log line.
func NewLogSink(logger zerolog.Logger) AuditSink {
	return audit.NewLogSink(logger)
}

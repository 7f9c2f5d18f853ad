// Package audit relays security events (registrations, logins, token
// verifications) to a pluggable sink.
//
// # Components
//
//   - [Sink]: event consumer (channel, zerolog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: timestamp, type, user, IP, outcome and free-form metadata.
//
// Deciding which events to emit belongs to the Engine and the flow functions.
// Events never carry plaintext passwords, hashes or tokens.
package audit

// Package stream maintains realtime status channels for generation sessions.
//
// # Manager
//
// [Manager] owns a registry of at most one live [Conn] per session id.
// Starting a stream for a session that already has one tears the old
// connection down first, so the single-connection invariant holds by
// construction.
//
// # Connection Lifecycle
//
// Each [Conn] dials the session's websocket endpoint, dispatches inbound
// messages to the registered [Callbacks], and sends a literal "ping" text
// frame on an interval to keep intermediary infrastructure from idling the
// connection out.
//
// On unclean close the connection reconnects with exponential backoff
// (1s, 2s, 4s, 8s, 16s; capped at 30s) for a bounded number of attempts.
// A successful reconnect resets the counter and fires OnReconnect so the
// consumer can re-fetch any state pushed while the channel was down.
// Exhausting the attempts surfaces [shared.ErrReconnectExhausted] through
// OnError exactly once and removes the connection from the registry.
//
// # Messages
//
// Inbound frames carry a type discriminator (connected, status, complete,
// error, ping, pong) parsed into a [Message] and dispatched through one
// handler; unrecognized types are logged and ignored.
//
// # Polling Fallback
//
// [Poller] feeds the same [Callbacks] from a fixed-interval status fetch,
// so the consumer's reconciliation path is identical whether state is
// pushed or pulled.
package stream

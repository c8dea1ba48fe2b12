// Package workflow holds the client-side state machine for playlist
// generation sessions.
//
// # Store
//
// [Store] is the single source of truth for the active session. User
// intents (start, load, cancel, edit, save, sync) and transport events both
// funnel into it, and it is the only writer of the held [Session]. Pushed
// websocket events and polled status fetches reconcile through the same
// entry point, so the state machine has exactly one update path.
//
// # State machine
//
// [Status] values advance monotonically along the generation pipeline:
//
//	pending → started → analyzing_mood → gathering_seeds →
//	generating_recommendations → evaluating_quality →
//	optimizing_recommendations → ordering_playlist →
//	(awaiting_user_input ⇄ processing_edits) → creating_playlist → completed
//
// failed and cancelled are terminal from any working state. The only legal
// backward move is the edit round-trip returning from processing_edits to
// awaiting_user_input; anything else arriving out of order is stale and
// dropped.
//
// # Staleness
//
// Session identity changes bump an internal epoch. Every async resolution
// (a status push, a poll result, an edit response, a post-reconnect refresh)
// carries the epoch it was issued under and is discarded if the store has
// moved on, so a cancelled or replaced session can never be resurrected by
// a late reply.
//
// # Edits
//
// [Store.ApplyCompletedEdit] mutates the finished track list optimistically
// through an [editCommand] that snapshots the pre-edit list; a server
// rejection rolls back to the snapshot and surfaces the error.
package workflow

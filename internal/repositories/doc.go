// Package repositories provides the local SQLite persistence layer.
//
// The database is a client-side cache, never the source of truth: the
// backend owns sessions and playlists, and everything stored here can be
// rebuilt from it. Three stores live on top of the shared connection:
//
//   - [UserCacheRepository]: the verified user payload with a TTL, so the
//     CLI can skip a network verify on every invocation.
//   - [HistoryRepository]: a log of generation sessions started from this
//     machine, for `mixtape history`.
//   - [PKCERepository]: one-shot PKCE verifier stash keyed by OAuth state,
//     consumed exactly once when the authorization redirect lands.
package repositories

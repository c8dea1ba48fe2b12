// Package api implements the typed HTTP client for the playlist generator backend.
//
// # Client
//
// [Client] wraps a [net/http.Client] with the backend's base URL, an outbound
// rate limiter, and bearer-token auth. Every endpoint wrapper funnels through
// a single request helper so error normalization happens in exactly one place.
//
// # Endpoint Groups
//
//   - Workflow: start / status / cancel for generation sessions
//   - Playlist: save-to-spotify, sync-from-spotify, edit, track search
//   - Auth: verify, login, logout, dashboard, quota
//
// # Error Normalization
//
// Failures map onto the shared sentinel taxonomy:
//   - transport failures wrap [shared.ErrAPIRequest]
//   - 401 wraps [shared.ErrNotAuthenticated]
//   - 400/422 wrap [shared.ErrInvalidInput]
//   - 404 wraps [shared.ErrSessionNotFound]
//   - other non-2xx wrap [shared.ErrServer]
//
// Server messages are extracted from the response body's detail/message/error
// fields where present and surfaced verbatim.
package api

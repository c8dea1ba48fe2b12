// Package models defines the data model shared between the API client, workflow store, and presentation layers.
//
// The types mirror the backend's JSON contract (snake_case field tags) so a
// decoded payload can flow through the client unchanged:
//
//   - [Track] : A recommended or anchor song with confidence and reasoning
//   - [MoodAnalysis] : Structured interpretation of a free-text mood prompt
//   - [SessionStatus] : Full server-reported state of a generation session
//   - [Playlist] : A saved playlist reference (id, name, external URL)
//   - [SyncSummary] : Change report from reconciling against Spotify
//   - [User] / [Dashboard] / [Quota] : Account surfaces
//
// The backend is authoritative for everything here; the client treats these as
// opaque values to replace wholesale, never to merge.
package models

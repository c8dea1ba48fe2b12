package models

import "time"

// Track represents a recommended or anchor song.
type Track struct {
	ID            string   `json:"track_id"`
	Name          string   `json:"track_name"`
	Artists       []string `json:"artists"`
	SpotifyURI    string   `json:"spotify_uri,omitempty"`
	Confidence    float64  `json:"confidence_score"`
	Reasoning     string   `json:"reasoning,omitempty"`
	Source        string   `json:"source,omitempty"`
	UserMentioned bool     `json:"user_mentioned,omitempty"`
	AnchorType    string   `json:"anchor_type,omitempty"`
	Protected     bool     `json:"protected,omitempty"`
}

// Artist returns the primary artist name, or an empty string for an unattributed track.
func (t Track) Artist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// FeatureRange bounds a target audio feature (energy, valence, etc).
type FeatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AudioTargets contains the feature ranges the backend derived from the mood prompt.
type AudioTargets struct {
	Energy       FeatureRange `json:"energy"`
	Valence      FeatureRange `json:"valence"`
	Danceability FeatureRange `json:"danceability"`
	Tempo        FeatureRange `json:"tempo"`
}

// MoodAnalysis is the structured result of analyzing a free-text mood prompt.
type MoodAnalysis struct {
	Interpretation string       `json:"interpretation"`
	PrimaryEmotion string       `json:"primary_emotion"`
	EnergyLevel    string       `json:"energy_level"`
	AudioTargets   AudioTargets `json:"audio_targets"`
	Keywords       []string     `json:"keywords,omitempty"`
	ColorScheme    []string     `json:"color_scheme,omitempty"`
}

// Playlist references a playlist saved (or saveable) to Spotify.
type Playlist struct {
	ID           string `json:"playlist_id"`
	Name         string `json:"playlist_name"`
	URL          string `json:"spotify_url,omitempty"`
	AlreadySaved bool   `json:"already_saved,omitempty"`
}

// Usage holds optional cost/usage counters reported by the backend.
type Usage struct {
	TotalTokens int     `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
}

// SessionStatus is the full server-reported state of a generation session.
//
// Returned by the status endpoint and carried inside stream messages; both
// paths feed the workflow store's single reconciliation entry point.
type SessionStatus struct {
	SessionID       string        `json:"session_id"`
	Status          string        `json:"status"`
	CurrentStep     string        `json:"current_step,omitempty"`
	MoodPrompt      string        `json:"mood_prompt,omitempty"`
	MoodAnalysis    *MoodAnalysis `json:"mood_analysis,omitempty"`
	Recommendations []Track       `json:"recommendations,omitempty"`
	AnchorTracks    []Track       `json:"anchor_tracks,omitempty"`
	Error           string        `json:"error,omitempty"`
	AwaitingInput   bool          `json:"awaiting_input"`
	HasPlaylist     bool          `json:"has_playlist"`
	Playlist        *Playlist     `json:"playlist,omitempty"`
	Usage           *Usage        `json:"usage,omitempty"`
	CreatedAt       time.Time     `json:"created_at,omitzero"`
	UpdatedAt       time.Time     `json:"updated_at,omitzero"`
}

// EditOptions parameterizes a playlist edit.
//
// Reorder uses FromIndex/ToIndex, remove uses TrackID, add uses Track and
// an optional Position (append when negative).
type EditOptions struct {
	TrackID   string `json:"track_id,omitempty"`
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
	Track     *Track `json:"track,omitempty"`
	Position  int    `json:"position"`
}

// SyncSummary reports changes found when reconciling the local track list
// against the external playlist's current contents.
type SyncSummary struct {
	TracksAdded   int `json:"tracks_added"`
	TracksRemoved int `json:"tracks_removed"`
}

// User is the verified account object returned by the auth endpoints.
type User struct {
	ID          string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Product     string `json:"product,omitempty"`
}

// DashboardSession summarizes one past session on the account dashboard.
type DashboardSession struct {
	SessionID  string    `json:"session_id"`
	MoodPrompt string    `json:"mood_prompt"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// Dashboard aggregates account activity.
type Dashboard struct {
	TotalSessions  int                `json:"total_sessions"`
	TotalPlaylists int                `json:"total_playlists"`
	Recent         []DashboardSession `json:"recent_sessions,omitempty"`
}

// Quota reports generation allowance for the account.
type Quota struct {
	Used     int       `json:"used"`
	Limit    int       `json:"limit"`
	ResetsAt time.Time `json:"resets_at,omitzero"`
}

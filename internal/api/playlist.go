package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// SaveToSpotify persists a completed playlist to the user's Spotify account.
//
// Idempotent server-side: saving an already-saved playlist returns the
// existing reference with AlreadySaved set.
func (c *Client) SaveToSpotify(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var playlist models.Playlist
	path := fmt.Sprintf("/api/playlists/%s/save-to-spotify", url.PathEscape(playlistID))
	if err := c.request(ctx, http.MethodPost, path, nil, nil, &playlist, shared.ErrPlaylistNotFound); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// SyncFromSpotify reconciles the session's track list against the external
// playlist's current contents and returns a change summary.
func (c *Client) SyncFromSpotify(ctx context.Context, playlistID string) (*models.SyncSummary, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var summary models.SyncSummary
	path := fmt.Sprintf("/api/playlists/%s/sync-from-spotify", url.PathEscape(playlistID))
	if err := c.request(ctx, http.MethodPost, path, nil, nil, &summary, shared.ErrPlaylistNotFound); err != nil {
		return nil, err
	}

	return &summary, nil
}

// EditPlaylist applies a reorder/add/remove edit server-side and returns the
// resulting session status for reconciliation.
func (c *Client) EditPlaylist(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	switch editType {
	case "reorder", "add", "remove":
	default:
		return nil, fmt.Errorf("%w: unknown edit type %q", shared.ErrInvalidInput, editType)
	}

	var status models.SessionStatus
	path := fmt.Sprintf("/api/playlists/%s/edit", url.PathEscape(playlistID))
	query := url.Values{"edit_type": {editType}}
	if err := c.request(ctx, http.MethodPost, path, query, opts, &status, shared.ErrPlaylistNotFound); err != nil {
		return nil, err
	}

	return &status, nil
}

// SearchTracks searches Spotify (via the backend) for tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}

	var resp struct {
		Tracks []models.Track `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/spotify/search/tracks", params, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Tracks, nil
}

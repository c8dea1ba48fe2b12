package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// HistoryEntry is one locally recorded generation session.
type HistoryEntry struct {
	SessionID   string
	MoodPrompt  string
	Status      string
	TrackCount  int
	PlaylistID  string
	PlaylistURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HistoryRepository records generation sessions started from this machine.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given
// database connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record upserts the session's row, refreshing status and playlist fields
// on repeat calls so the log tracks each session's latest known state.
func (r *HistoryRepository) Record(entry HistoryEntry) error {
	if entry.SessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	query := `
		INSERT INTO session_history (id, mood_prompt, status, track_count, playlist_id, playlist_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			track_count = excluded.track_count,
			playlist_id = excluded.playlist_id,
			playlist_url = excluded.playlist_url,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, entry.SessionID, entry.MoodPrompt, entry.Status, entry.TrackCount, entry.PlaylistID, entry.PlaylistURL, entry.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}

	return nil
}

// Get retrieves a single session by id.
func (r *HistoryRepository) Get(sessionID string) (*HistoryEntry, error) {
	query := `
		SELECT id, mood_prompt, status, track_count, playlist_id, playlist_url, created_at, updated_at
		FROM session_history
		WHERE id = ?
	`

	var entry HistoryEntry
	err := r.db.QueryRow(query, sessionID).Scan(&entry.SessionID, &entry.MoodPrompt, &entry.Status, &entry.TrackCount, &entry.PlaylistID, &entry.PlaylistURL, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &entry, nil
}

// List returns the most recent sessions, newest first. A non-positive limit
// defaults to 20.
func (r *HistoryRepository) List(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, mood_prompt, status, track_count, playlist_id, playlist_url, created_at, updated_at
		FROM session_history
		ORDER BY updated_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		err := rows.Scan(&entry.SessionID, &entry.MoodPrompt, &entry.Status, &entry.TrackCount, &entry.PlaylistID, &entry.PlaylistURL, &entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than the cutoff. Returns how many were removed.
func (r *HistoryRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM session_history WHERE updated_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// DefaultUserTTL bounds how long a cached verification is trusted before the
// backend is consulted again.
const DefaultUserTTL = 24 * time.Hour

// UserCacheRepository persists the verified user payload with an expiry.
//
// The table holds at most one row (id = 1): the cache tracks whoever is
// currently logged in, not an account list.
type UserCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewUserCacheRepository creates a new [UserCacheRepository]. A non-positive
// ttl falls back to [DefaultUserTTL].
func NewUserCacheRepository(db *sql.DB, ttl time.Duration) *UserCacheRepository {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &UserCacheRepository{db: db, ttl: ttl}
}

// Put stores user as the cached identity, replacing any previous one.
func (r *UserCacheRepository) Put(user *models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO user_cache (id, payload, verified_at, expires_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, verified_at = excluded.verified_at, expires_at = excluded.expires_at
	`

	_, err = r.db.Exec(query, string(payload), now, now.Add(r.ttl))
	if err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}

// Get returns the cached user when present and unexpired; otherwise
// [shared.ErrNotAuthenticated].
func (r *UserCacheRepository) Get() (*models.User, error) {
	query := `SELECT payload, expires_at FROM user_cache WHERE id = 1`

	var (
		payload   string
		expiresAt time.Time
	)

	err := r.db.QueryRow(query).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no cached login", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user cache: %w", err)
	}

	if time.Now().After(expiresAt) {
		return nil, fmt.Errorf("%w: cached login expired", shared.ErrNotAuthenticated)
	}

	var user models.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}

	return &user, nil
}

// Clear removes the cached identity. Clearing an empty cache is not an error.
func (r *UserCacheRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM user_cache WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear user cache: %w", err)
	}
	return nil
}

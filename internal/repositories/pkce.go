package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// pkceMaxAge bounds how long a stashed verifier stays redeemable; a redirect
// that takes longer than this has gone stale.
const pkceMaxAge = 10 * time.Minute

// PKCERepository stashes PKCE code verifiers keyed by OAuth state.
//
// The flow writes a verifier before opening the browser and redeems it when
// the redirect lands. Redemption is one-shot: the row is deleted as it is
// read, so a replayed state parameter cannot complete the exchange twice.
type PKCERepository struct {
	db *sql.DB
}

// NewPKCERepository creates a new [PKCERepository] with the given database
// connection.
func NewPKCERepository(db *sql.DB) *PKCERepository {
	return &PKCERepository{db: db}
}

// Save stashes the verifier under state.
func (r *PKCERepository) Save(state, verifier string) error {
	if state == "" || verifier == "" {
		return fmt.Errorf("%w: state and verifier", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO pkce_stash (state, verifier, created_at) VALUES (?, ?, ?)
		ON CONFLICT(state) DO UPDATE SET verifier = excluded.verifier, created_at = excluded.created_at
	`

	if _, err := r.db.Exec(query, state, verifier, time.Now()); err != nil {
		return fmt.Errorf("failed to stash verifier: %w", err)
	}

	return nil
}

// Take redeems and deletes the verifier for state. Unknown or expired states
// fail with [shared.ErrStateMismatch].
func (r *PKCERepository) Take(state string) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		verifier  string
		createdAt time.Time
	)

	err = tx.QueryRow(`SELECT verifier, created_at FROM pkce_stash WHERE state = ?`, state).Scan(&verifier, &createdAt)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: unknown state", shared.ErrStateMismatch)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query verifier: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM pkce_stash WHERE state = ?`, state); err != nil {
		return "", fmt.Errorf("failed to consume verifier: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	if time.Since(createdAt) > pkceMaxAge {
		return "", fmt.Errorf("%w: state expired", shared.ErrStateMismatch)
	}

	return verifier, nil
}

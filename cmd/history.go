package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/repositories"
)

// HistoryList prints recent locally recorded sessions.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	entries, err := repositories.NewHistoryRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No sessions recorded yet. Run 'mixtape create' to start one.\n")
	}

	r.writePlainHeader("Session History")
	for _, entry := range entries {
		r.writePlain("%s  %-12s  %2d tracks  %s\n", entry.UpdatedAt.Format("2006-01-02 15:04"), entry.Status, entry.TrackCount, entry.MoodPrompt)
		r.writePlain("  id: %s", entry.SessionID)
		if entry.PlaylistURL != "" {
			r.writePlain("  →  %s", entry.PlaylistURL)
		}
		r.writePlain("\n")
	}

	return nil
}

// HistoryPrune removes entries older than the cutoff.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	days := int(cmd.Int("days"))
	cutoff := time.Now().AddDate(0, 0, -days)

	removed, err := repositories.NewHistoryRepository(db).Prune(cutoff)
	if err != nil {
		return err
	}

	r.logger.Info("history pruned", "removed", removed, "days", days)
	return r.writePlain("✓ Removed %d entries older than %d days\n", removed, days)
}

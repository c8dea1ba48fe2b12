package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/workflow"
)

// Save persists a completed playlist to the user's Spotify account.
func (r *Runner) Save(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if err := r.store.LoadWorkflow(ctx, sessionID); err != nil {
		return err
	}
	defer r.store.Close()

	r.logger.Info("saving playlist to Spotify", "session", sessionID)

	playlist, err := r.store.SaveToSpotify(ctx)
	if err != nil {
		return err
	}

	r.recordHistory()

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}

	if playlist.AlreadySaved {
		r.writePlain("Playlist was already saved.\n")
	} else {
		r.writePlain("✓ Playlist saved to Spotify\n")
	}
	r.writePlain("Name: %s\n", playlist.Name)
	if playlist.URL != "" {
		r.writePlain("URL: %s\n", playlist.URL)
	}

	return nil
}

// Sync reconciles the session's tracks against the saved Spotify playlist.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if err := r.store.LoadWorkflow(ctx, sessionID); err != nil {
		return err
	}
	defer r.store.Close()

	r.logger.Info("syncing from Spotify", "session", sessionID)

	summary, err := r.store.SyncFromSpotify(ctx)
	if err != nil {
		return err
	}

	r.recordHistory()

	if summary.TracksAdded == 0 && summary.TracksRemoved == 0 {
		return r.writePlain("✓ Already in sync\n")
	}

	r.writePlain("✓ Sync complete\n")
	r.writePlain("Added: %d tracks\n", summary.TracksAdded)
	r.writePlain("Removed: %d tracks\n", summary.TracksRemoved)
	return nil
}

// EditRemove removes a track from a finished playlist.
func (r *Runner) EditRemove(ctx context.Context, cmd *cli.Command) error {
	return r.applyEdit(ctx, cmd.String("session"), workflow.EditRemove, models.EditOptions{
		TrackID: cmd.String("track"),
	})
}

// EditReorder moves a track between positions in a finished playlist.
func (r *Runner) EditReorder(ctx context.Context, cmd *cli.Command) error {
	from := int(cmd.Int("from"))
	to := int(cmd.Int("to"))
	if from < 1 || to < 1 {
		return fmt.Errorf("%w: positions are 1-based", shared.ErrInvalidFlag)
	}

	return r.applyEdit(ctx, cmd.String("session"), workflow.EditReorder, models.EditOptions{
		FromIndex: from - 1,
		ToIndex:   to - 1,
	})
}

// EditAdd searches Spotify and inserts the best match into the playlist.
func (r *Runner) EditAdd(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")

	tracks, err := r.client.SearchTracks(ctx, query, 1)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, query)
	}

	track := tracks[0]
	r.writePlain("Adding: %s - %s\n", track.Artist(), track.Name)

	position := int(cmd.Int("position")) - 1
	return r.applyEdit(ctx, cmd.String("session"), workflow.EditAdd, models.EditOptions{
		Track:    &track,
		Position: position,
	})
}

// applyEdit loads the session, applies the edit optimistically through the
// store, and prints the resulting track list.
func (r *Runner) applyEdit(ctx context.Context, sessionID, editType string, opts models.EditOptions) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if err := r.store.LoadWorkflow(ctx, sessionID); err != nil {
		return err
	}
	defer r.store.Close()

	r.logger.Info("applying edit", "session", sessionID, "type", editType)

	if err := r.store.ApplyCompletedEdit(ctx, editType, opts); err != nil {
		return err
	}

	session, ok := r.store.Session()
	if !ok {
		return nil
	}

	r.recordHistory()
	r.writePlain("✓ Edit applied (%d tracks)\n\n", len(session.Recommendations))
	for i, track := range session.Recommendations {
		r.writePlain("  %d. %s - %s\n", i+1, track.Artist(), track.Name)
	}

	return nil
}

// Search searches Spotify for tracks matching the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	tracks, err := r.client.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}

	for i, track := range tracks {
		r.writePlain("%d. %s - %s [%s]\n", i+1, track.Artist(), track.Name, track.ID)
	}

	return nil
}

// Export writes a session's playlist to a local file in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	status, err := r.client.WorkflowStatus(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(status.Recommendations) == 0 {
		return fmt.Errorf("%w: session has no tracks to export", shared.ErrSessionState)
	}

	output := cmd.String("output")

	switch cmd.String("format") {
	case "csv":
		result, err := formatter.WriteCSVExport(status, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks\n", len(status.Recommendations))
		r.writePlain("Tracks: %s\n", result.TracksFile)
		r.writePlain("Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		file, err := formatter.WriteMarkdownExport(status, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(status.Recommendations), file)
	case "text", "txt":
		file, err := formatter.WriteTextExport(status, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(status.Recommendations), file)
	default:
		return fmt.Errorf("%w: format must be csv, markdown, or text", shared.ErrInvalidFlag)
	}

	return nil
}

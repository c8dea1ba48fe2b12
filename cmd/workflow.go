package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/workflow"
)

// Create starts a generation session and, unless told otherwise, follows it
// to completion.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	moodPrompt := strings.TrimSpace(cmd.StringArg("mood"))
	if moodPrompt == "" {
		return fmt.Errorf("%w: mood prompt", shared.ErrMissingArgument)
	}

	genreHint := cmd.String("genre")

	r.logger.Info("starting generation", "mood", moodPrompt, "genre", genreHint)

	sessionID, err := r.store.StartWorkflow(ctx, moodPrompt, genreHint)
	if err != nil {
		return err
	}

	r.recordHistory()
	r.writePlain("Session started: %s\n", sessionID)

	if !cmd.Bool("follow") {
		r.store.Close()
		return nil
	}

	return r.followSession(ctx, cmd.Bool("poll"), cmd.Bool("json"))
}

// Status prints the current state of a session, optionally watching it.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if !cmd.Bool("watch") {
		status, err := r.client.WorkflowStatus(ctx, sessionID)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(status, true)
		}
		return r.printStatus(status.Status, status.CurrentStep, status.Error, len(status.Recommendations))
	}

	if err := r.store.LoadWorkflow(ctx, sessionID); err != nil {
		return err
	}
	if session, ok := r.store.Session(); ok && session.Status.Terminal() {
		return r.printSummary(session, cmd.Bool("json"))
	}

	return r.followSession(ctx, cmd.Bool("poll"), cmd.Bool("json"))
}

// Cancel stops an in-flight session.
func (r *Runner) Cancel(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	r.logger.Info("cancelling session", "session", sessionID)

	if err := r.client.CancelWorkflow(ctx, sessionID); err != nil {
		return err
	}

	return r.writePlain("✓ Session cancelled: %s\n", sessionID)
}

// followSession consumes store snapshots until the session reaches a
// terminal status, printing each pipeline transition as it happens. When the
// realtime channel dies (reconnects exhausted, or the stream never opened) a
// poller is started so the loop always has an update source.
func (r *Runner) followSession(ctx context.Context, poll, asJSON bool) error {
	defer r.store.Close()

	pollErr := make(chan error, 1)
	polling := poll
	if poll {
		go func() { pollErr <- r.store.PollWorkflow(ctx) }()
	}

	var lastStatus workflow.Status
	var lastStep string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-pollErr:
			if err != nil {
				return err
			}
		case session := <-r.store.Updates():
			if session.SessionID == "" {
				continue
			}
			if session.StreamLost && !polling {
				polling = true
				r.logger.Warn("realtime channel lost, polling instead", "session", session.SessionID)
				go func() { pollErr <- r.store.PollWorkflow(ctx) }()
			}
			if session.Status != lastStatus || session.CurrentStep != lastStep {
				lastStatus = session.Status
				lastStep = session.CurrentStep
				r.printStatus(string(session.Status), session.CurrentStep, session.Error, len(session.Recommendations))
			}
			if session.Status.Terminal() {
				r.recordHistory()
				return r.printSummary(session, asJSON)
			}
		}
	}
}

func (r *Runner) printStatus(status, step, errMsg string, trackCount int) error {
	line := fmt.Sprintf("▸ %s", workflow.Status(status).Label())
	if step != "" {
		line += fmt.Sprintf(" — %s", step)
	}
	if trackCount > 0 {
		line += fmt.Sprintf(" (%d tracks)", trackCount)
	}
	if errMsg != "" {
		line += fmt.Sprintf(" [error: %s]", errMsg)
	}
	return r.writePlain("%s\n", line)
}

func (r *Runner) printSummary(session workflow.Session, asJSON bool) error {
	if asJSON {
		return r.writeJSON(session, true)
	}

	switch session.Status {
	case workflow.StatusFailed:
		r.writePlainln("✗ Generation failed: %s", session.Error)
		return nil
	case workflow.StatusCancelled:
		r.writePlainln("Session cancelled.")
		return nil
	}

	r.writePlain("\n")
	r.writePlainHeader("Playlist Ready!")
	r.writePlain("Mood: %s\n", session.MoodPrompt)
	if session.MoodAnalysis != nil && session.MoodAnalysis.Interpretation != "" {
		r.writePlain("Read: %s\n", session.MoodAnalysis.Interpretation)
	}
	r.writePlain("Tracks: %d\n\n", len(session.Recommendations))

	for i, track := range session.Recommendations {
		marker := ""
		if track.Protected {
			marker = " ♪"
		}
		r.writePlain("  %d. %s - %s%s\n", i+1, track.Artist(), track.Name, marker)
	}

	if session.Playlist != nil && session.Playlist.URL != "" {
		r.writePlain("\nSpotify: %s\n", session.Playlist.URL)
	} else {
		r.writePlain("\nRun 'mixtape save %s' to push it to Spotify.\n", session.SessionID)
	}

	if session.Usage != nil && session.Usage.TotalCost > 0 {
		r.writePlain("Cost: $%.4f (%d tokens)\n", session.Usage.TotalCost, session.Usage.TotalTokens)
	}

	return nil
}

// recordHistory mirrors the held session into the local history table.
// Purely best-effort: a missing database never fails the command.
func (r *Runner) recordHistory() {
	session, ok := r.store.Session()
	if !ok {
		return
	}

	db, err := r.database()
	if err != nil {
		r.logger.Debug("history not recorded", "error", err)
		return
	}

	entry := repositories.HistoryEntry{
		SessionID:  session.SessionID,
		MoodPrompt: session.MoodPrompt,
		Status:     string(session.Status),
		TrackCount: len(session.Recommendations),
		CreatedAt:  session.CreatedAt,
	}
	if session.Playlist != nil {
		entry.PlaylistID = session.Playlist.ID
		entry.PlaylistURL = session.Playlist.URL
	}

	if err := repositories.NewHistoryRepository(db).Record(entry); err != nil {
		r.logger.Debug("history not recorded", "error", err)
	}
}

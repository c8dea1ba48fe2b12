package workflow

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Edit types accepted by [Store.ApplyCompletedEdit].
const (
	EditReorder = "reorder"
	EditAdd     = "add"
	EditRemove  = "remove"
)

// editCommand captures a local mutation together with the pre-edit track
// list, so a failed server round-trip can restore last-known-good state
// instead of each call site hand-rolling its own copy.
type editCommand struct {
	editType string
	opts     models.EditOptions
	snapshot []models.Track
}

// mutate applies the edit to tracks and returns the resulting list.
func (c *editCommand) mutate(tracks []models.Track) ([]models.Track, error) {
	switch c.editType {
	case EditRemove:
		return removeTrack(tracks, c.opts.TrackID)
	case EditReorder:
		return reorderTrack(tracks, c.opts.FromIndex, c.opts.ToIndex)
	case EditAdd:
		return addTrack(tracks, c.opts.Track, c.opts.Position)
	default:
		return nil, fmt.Errorf("%w: unknown edit type %q", shared.ErrInvalidInput, c.editType)
	}
}

// ApplyCompletedEdit mutates the finished track list optimistically: the
// edit is applied locally first, then sent to the server. A rejected edit
// rolls the list back to the pre-edit snapshot and surfaces the error; an
// accepted edit reconciles against the status the server returns.
//
// Valid while the session is completed or paused for user input.
func (s *Store) ApplyCompletedEdit(ctx context.Context, editType string, opts models.EditOptions) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return shared.ErrNoSession
	}
	switch s.session.Status {
	case StatusCompleted, StatusAwaitingInput:
	default:
		status := s.session.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot edit a %s session", shared.ErrSessionState, status)
	}

	cmd := &editCommand{
		editType: editType,
		opts:     opts,
		snapshot: append([]models.Track(nil), s.session.Recommendations...),
	}
	mutated, err := cmd.mutate(cmd.snapshot)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.session.Recommendations = mutated
	wasAwaiting := s.session.Status == StatusAwaitingInput
	if wasAwaiting {
		s.session.Status = StatusProcessingEdits
	}
	sessionID := s.session.SessionID
	epoch := s.epoch
	s.notifyLocked()
	s.mu.Unlock()

	status, err := s.backend.EditPlaylist(ctx, sessionID, editType, opts)
	if err != nil {
		s.rollbackAt(epoch, cmd, wasAwaiting, err)
		return fmt.Errorf("%w: %v", shared.ErrEditFailed, err)
	}

	s.applyAt(epoch, status)
	return nil
}

// rollbackAt restores the pre-edit snapshot when the session is unchanged.
func (s *Store) rollbackAt(epoch uint64, cmd *editCommand, wasAwaiting bool, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.session == nil {
		return
	}
	s.session.Recommendations = cmd.snapshot
	if wasAwaiting && s.session.Status == StatusProcessingEdits {
		s.session.Status = StatusAwaitingInput
	}
	s.session.Error = cause.Error()
	s.notifyLocked()
}

func removeTrack(tracks []models.Track, trackID string) ([]models.Track, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	for i, track := range tracks {
		if track.ID != trackID {
			continue
		}
		if track.Protected {
			return nil, fmt.Errorf("%w: %s", shared.ErrTrackProtected, track.Name)
		}
		out := append([]models.Track(nil), tracks[:i]...)
		return append(out, tracks[i+1:]...), nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
}

func reorderTrack(tracks []models.Track, from, to int) ([]models.Track, error) {
	if from < 0 || from >= len(tracks) || to < 0 || to >= len(tracks) {
		return nil, fmt.Errorf("%w: reorder %d -> %d out of range", shared.ErrInvalidInput, from, to)
	}
	out := append([]models.Track(nil), tracks...)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)

	rest := append([]models.Track(nil), out[to:]...)
	out = append(out[:to], moved)
	return append(out, rest...), nil
}

func addTrack(tracks []models.Track, track *models.Track, position int) ([]models.Track, error) {
	if track == nil {
		return nil, fmt.Errorf("%w: track", shared.ErrMissingArgument)
	}
	if position < 0 || position > len(tracks) {
		position = len(tracks)
	}
	out := append([]models.Track(nil), tracks[:position]...)
	out = append(out, *track)
	return append(out, tracks[position:]...), nil
}

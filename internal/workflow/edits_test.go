package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	internaltesting "github.com/desertthunder/mixtape/internal/testing"
)

func completedStore(t *testing.T, backend *internaltesting.MockBackend, status Status) *Store {
	t.Helper()
	streams := internaltesting.NewMockStreamer()
	store := newTestStore(backend, streams)
	backend.StatusFunc = func(ctx context.Context, sessionID string) (*models.SessionStatus, error) {
		return &models.SessionStatus{
			SessionID: sessionID,
			Status:    string(status),
			Recommendations: []models.Track{
				{ID: "a", Name: "A"},
				{ID: "b", Name: "B", Protected: true},
				{ID: "c", Name: "C"},
			},
		}, nil
	}
	if err := store.LoadWorkflow(context.Background(), "session-1"); err != nil {
		t.Fatalf("failed to load workflow: %v", err)
	}
	return store
}

func trackIDs(tracks []models.Track) []string {
	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.ID
	}
	return ids
}

func assertOrder(t *testing.T, tracks []models.Track, want ...string) {
	t.Helper()
	got := trackIDs(tracks)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestApplyCompletedEdit(t *testing.T) {
	t.Run("RemoveTrack", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return &models.SessionStatus{
				SessionID:       playlistID,
				Status:          "completed",
				Recommendations: []models.Track{{ID: "a"}, {ID: "b", Protected: true}},
			}, nil
		}

		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "c"})
		if err != nil {
			t.Fatalf("failed to remove track: %v", err)
		}

		session, _ := store.Session()
		assertOrder(t, session.Recommendations, "a", "b")
		if backend.Calls("edit") != 1 {
			t.Errorf("expected one edit call, got %d", backend.Calls("edit"))
		}
	})

	t.Run("RollbackOnServerRejection", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return nil, fmt.Errorf("%w: playlist locked", shared.ErrServer)
		}

		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "c"})
		if !errors.Is(err, shared.ErrEditFailed) {
			t.Fatalf("expected ErrEditFailed, got %v", err)
		}

		session, _ := store.Session()
		assertOrder(t, session.Recommendations, "a", "b", "c")
		if session.Error == "" {
			t.Error("expected rejection to surface on the session")
		}
	})

	t.Run("ProtectedTrack", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "b"})
		if !errors.Is(err, shared.ErrTrackProtected) {
			t.Fatalf("expected ErrTrackProtected, got %v", err)
		}
		if backend.Calls("edit") != 0 {
			t.Error("protected removals must not reach the server")
		}

		session, _ := store.Session()
		assertOrder(t, session.Recommendations, "a", "b", "c")
	})

	t.Run("UnknownTrack", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "zzz"})
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Reorder", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return &models.SessionStatus{
				SessionID:       playlistID,
				Status:          "completed",
				Recommendations: []models.Track{{ID: "b", Protected: true}, {ID: "c"}, {ID: "a"}},
			}, nil
		}

		err := store.ApplyCompletedEdit(context.Background(), EditReorder, models.EditOptions{FromIndex: 0, ToIndex: 2})
		if err != nil {
			t.Fatalf("failed to reorder: %v", err)
		}

		session, _ := store.Session()
		assertOrder(t, session.Recommendations, "b", "c", "a")
	})

	t.Run("ReorderOutOfRange", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		err := store.ApplyCompletedEdit(context.Background(), EditReorder, models.EditOptions{FromIndex: 0, ToIndex: 9})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("AddAtPosition", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return &models.SessionStatus{
				SessionID:       playlistID,
				Status:          "completed",
				Recommendations: []models.Track{{ID: "a"}, {ID: "d"}, {ID: "b", Protected: true}, {ID: "c"}},
			}, nil
		}

		err := store.ApplyCompletedEdit(context.Background(), EditAdd, models.EditOptions{
			Track:    &models.Track{ID: "d", Name: "D"},
			Position: 1,
		})
		if err != nil {
			t.Fatalf("failed to add track: %v", err)
		}

		session, _ := store.Session()
		assertOrder(t, session.Recommendations, "a", "d", "b", "c")
	})

	t.Run("AddBeyondEndAppends", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusCompleted)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return &models.SessionStatus{
				SessionID:       playlistID,
				Status:          "completed",
				Recommendations: []models.Track{{ID: "a"}, {ID: "b", Protected: true}, {ID: "c"}, {ID: "d"}},
			}, nil
		}

		err := store.ApplyCompletedEdit(context.Background(), EditAdd, models.EditOptions{
			Track:    &models.Track{ID: "d", Name: "D"},
			Position: 42,
		})
		if err != nil {
			t.Fatalf("failed to add track: %v", err)
		}

		session, _ := store.Session()
		assertOrder(t, session.Recommendations, "a", "b", "c", "d")
	})

	t.Run("AwaitingInputRoundTrip", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusAwaitingInput)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return &models.SessionStatus{SessionID: playlistID, Status: "awaiting_user_input"}, nil
		}

		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "c"})
		if err != nil {
			t.Fatalf("failed to remove track: %v", err)
		}

		session, _ := store.Session()
		if session.Status != StatusAwaitingInput {
			t.Errorf("expected awaiting_user_input after round-trip, got %s", session.Status)
		}
	})

	t.Run("AwaitingInputRollbackRestoresStatus", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusAwaitingInput)

		backend.EditFunc = func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
			return nil, fmt.Errorf("%w: timeout", shared.ErrServer)
		}

		if err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "c"}); err == nil {
			t.Fatal("expected error")
		}

		session, _ := store.Session()
		if session.Status != StatusAwaitingInput {
			t.Errorf("expected status restored to awaiting_user_input, got %s", session.Status)
		}
		assertOrder(t, session.Recommendations, "a", "b", "c")
	})

	t.Run("RejectedWhileGenerating", func(t *testing.T) {
		backend := internaltesting.NewMockBackend()
		store := completedStore(t, backend, StatusGenerating)

		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "a"})
		if !errors.Is(err, shared.ErrSessionState) {
			t.Fatalf("expected ErrSessionState, got %v", err)
		}
	})

	t.Run("NoSession", func(t *testing.T) {
		store := newTestStore(internaltesting.NewMockBackend(), internaltesting.NewMockStreamer())
		err := store.ApplyCompletedEdit(context.Background(), EditRemove, models.EditOptions{TrackID: "a"})
		if !errors.Is(err, shared.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	})
}

package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestUserCacheRepository(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserCacheRepository(db, 0)

		user := &models.User{ID: "u1", DisplayName: "Alex", Email: "alex@example.com"}
		if err := repo.Put(user); err != nil {
			t.Fatalf("Failed to cache user: %v", err)
		}

		got, err := repo.Get()
		if err != nil {
			t.Fatalf("Failed to get cached user: %v", err)
		}
		if got.DisplayName != "Alex" || got.Email != "alex@example.com" {
			t.Errorf("Unexpected cached user: %+v", got)
		}
	})

	t.Run("PutReplacesPrevious", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserCacheRepository(db, 0)

		if err := repo.Put(&models.User{ID: "u1", DisplayName: "Alex"}); err != nil {
			t.Fatalf("Failed to cache user: %v", err)
		}
		if err := repo.Put(&models.User{ID: "u2", DisplayName: "Sam"}); err != nil {
			t.Fatalf("Failed to replace cached user: %v", err)
		}

		got, err := repo.Get()
		if err != nil {
			t.Fatalf("Failed to get cached user: %v", err)
		}
		if got.ID != "u2" {
			t.Errorf("Expected replacement user, got %+v", got)
		}
	})

	t.Run("ExpiredEntry", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserCacheRepository(db, time.Nanosecond)

		if err := repo.Put(&models.User{ID: "u1", DisplayName: "Alex"}); err != nil {
			t.Fatalf("Failed to cache user: %v", err)
		}

		time.Sleep(time.Millisecond)

		if _, err := repo.Get(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated for expired cache, got %v", err)
		}
	})

	t.Run("EmptyCache", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserCacheRepository(db, 0)

		if _, err := repo.Get(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserCacheRepository(db, 0)

		if err := repo.Put(&models.User{ID: "u1"}); err != nil {
			t.Fatalf("Failed to cache user: %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Fatalf("Failed to clear cache: %v", err)
		}
		if _, err := repo.Get(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated after clear, got %v", err)
		}

		// clearing again is a no-op
		if err := repo.Clear(); err != nil {
			t.Errorf("Clearing empty cache failed: %v", err)
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	t.Run("RecordAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		entry := HistoryEntry{
			SessionID:  "session-1",
			MoodPrompt: "rainy jazz cafe",
			Status:     "started",
			TrackCount: 0,
		}
		if err := repo.Record(entry); err != nil {
			t.Fatalf("Failed to record session: %v", err)
		}

		got, err := repo.Get("session-1")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if got.MoodPrompt != "rainy jazz cafe" || got.Status != "started" {
			t.Errorf("Unexpected entry: %+v", got)
		}
	})

	t.Run("RecordUpsertsStatus", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		if err := repo.Record(HistoryEntry{SessionID: "session-1", MoodPrompt: "rainy jazz", Status: "started"}); err != nil {
			t.Fatalf("Failed to record session: %v", err)
		}
		if err := repo.Record(HistoryEntry{
			SessionID:   "session-1",
			MoodPrompt:  "rainy jazz",
			Status:      "completed",
			TrackCount:  20,
			PlaylistID:  "pl-1",
			PlaylistURL: "https://open.spotify.com/playlist/pl-1",
		}); err != nil {
			t.Fatalf("Failed to upsert session: %v", err)
		}

		got, err := repo.Get("session-1")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if got.Status != "completed" || got.TrackCount != 20 || got.PlaylistID != "pl-1" {
			t.Errorf("Expected upserted fields, got %+v", got)
		}
	})

	t.Run("RecordWithoutID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		if err := repo.Record(HistoryEntry{MoodPrompt: "no id"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("GetUnknownSession", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		for _, id := range []string{"session-1", "session-2", "session-3"} {
			if err := repo.Record(HistoryEntry{SessionID: id, MoodPrompt: "mood", Status: "completed"}); err != nil {
				t.Fatalf("Failed to record %s: %v", id, err)
			}
			time.Sleep(2 * time.Millisecond)
		}

		entries, err := repo.List(2)
		if err != nil {
			t.Fatalf("Failed to list history: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(entries))
		}
		if entries[0].SessionID != "session-3" || entries[1].SessionID != "session-2" {
			t.Errorf("Expected newest first, got %s then %s", entries[0].SessionID, entries[1].SessionID)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)

		if err := repo.Record(HistoryEntry{SessionID: "old", MoodPrompt: "mood", Status: "completed"}); err != nil {
			t.Fatalf("Failed to record session: %v", err)
		}

		time.Sleep(2 * time.Millisecond)
		cutoff := time.Now()
		time.Sleep(2 * time.Millisecond)

		if err := repo.Record(HistoryEntry{SessionID: "new", MoodPrompt: "mood", Status: "completed"}); err != nil {
			t.Fatalf("Failed to record session: %v", err)
		}

		pruned, err := repo.Prune(cutoff)
		if err != nil {
			t.Fatalf("Failed to prune history: %v", err)
		}
		if pruned != 1 {
			t.Errorf("Expected 1 pruned entry, got %d", pruned)
		}

		if _, err := repo.Get("old"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Error("Expected old entry to be pruned")
		}
		if _, err := repo.Get("new"); err != nil {
			t.Errorf("Expected new entry to survive: %v", err)
		}
	})
}

func TestPKCERepository(t *testing.T) {
	t.Run("SaveAndTake", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPKCERepository(db)

		if err := repo.Save("state-1", "verifier-1"); err != nil {
			t.Fatalf("Failed to stash verifier: %v", err)
		}

		verifier, err := repo.Take("state-1")
		if err != nil {
			t.Fatalf("Failed to take verifier: %v", err)
		}
		if verifier != "verifier-1" {
			t.Errorf("Expected verifier-1, got %s", verifier)
		}
	})

	t.Run("TakeIsOneShot", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPKCERepository(db)

		if err := repo.Save("state-1", "verifier-1"); err != nil {
			t.Fatalf("Failed to stash verifier: %v", err)
		}
		if _, err := repo.Take("state-1"); err != nil {
			t.Fatalf("Failed to take verifier: %v", err)
		}

		if _, err := repo.Take("state-1"); !errors.Is(err, shared.ErrStateMismatch) {
			t.Errorf("Expected ErrStateMismatch on replay, got %v", err)
		}
	})

	t.Run("UnknownState", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPKCERepository(db)

		if _, err := repo.Take("missing"); !errors.Is(err, shared.ErrStateMismatch) {
			t.Errorf("Expected ErrStateMismatch, got %v", err)
		}
	})

	t.Run("SaveWithoutState", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPKCERepository(db)

		if err := repo.Save("", "verifier"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Expected ErrMissingArgument, got %v", err)
		}
	})
}

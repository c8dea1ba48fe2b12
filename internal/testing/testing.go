// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/stream"
)

// MockBackend is a test double for [workflow.Backend]. Each hook defaults to
// a benign response; set the func fields to script behavior per test.
type MockBackend struct {
	mu    sync.Mutex
	calls map[string]int

	StartFunc  func(ctx context.Context, moodPrompt, genreHint string) (string, error)
	StatusFunc func(ctx context.Context, sessionID string) (*models.SessionStatus, error)
	CancelFunc func(ctx context.Context, sessionID string) error
	SaveFunc   func(ctx context.Context, playlistID string) (*models.Playlist, error)
	SyncFunc   func(ctx context.Context, playlistID string) (*models.SyncSummary, error)
	EditFunc   func(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error)
}

func NewMockBackend() *MockBackend {
	return &MockBackend{calls: map[string]int{}}
}

// Calls returns how many times the named operation ran.
func (m *MockBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockBackend) count(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
}

func (m *MockBackend) StartWorkflow(ctx context.Context, moodPrompt, genreHint string) (string, error) {
	m.count("start")
	if m.StartFunc != nil {
		return m.StartFunc(ctx, moodPrompt, genreHint)
	}
	return "session-1", nil
}

func (m *MockBackend) WorkflowStatus(ctx context.Context, sessionID string) (*models.SessionStatus, error) {
	m.count("status")
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, sessionID)
	}
	return &models.SessionStatus{SessionID: sessionID, Status: "pending"}, nil
}

func (m *MockBackend) CancelWorkflow(ctx context.Context, sessionID string) error {
	m.count("cancel")
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockBackend) SaveToSpotify(ctx context.Context, playlistID string) (*models.Playlist, error) {
	m.count("save")
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, playlistID)
	}
	return &models.Playlist{ID: playlistID}, nil
}

func (m *MockBackend) SyncFromSpotify(ctx context.Context, playlistID string) (*models.SyncSummary, error) {
	m.count("sync")
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, playlistID)
	}
	return &models.SyncSummary{}, nil
}

func (m *MockBackend) EditPlaylist(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error) {
	m.count("edit")
	if m.EditFunc != nil {
		return m.EditFunc(ctx, playlistID, editType, opts)
	}
	return &models.SessionStatus{SessionID: playlistID, Status: "completed"}, nil
}

// MockStreamer is a test double for [workflow.Streamer]. It records the
// callbacks registered per session so tests can inject transport events.
type MockStreamer struct {
	mu        sync.Mutex
	callbacks map[string]stream.Callbacks
	started   map[string]int
	stopped   map[string]int
	StartErr  error
}

func NewMockStreamer() *MockStreamer {
	return &MockStreamer{
		callbacks: map[string]stream.Callbacks{},
		started:   map[string]int{},
		stopped:   map[string]int{},
	}
}

func (m *MockStreamer) StartStreaming(sessionID string, cb stream.Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.callbacks[sessionID] = cb
	m.started[sessionID]++
	return nil
}

func (m *MockStreamer) StopStreaming(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.callbacks, sessionID)
	m.stopped[sessionID]++
}

func (m *MockStreamer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.callbacks {
		delete(m.callbacks, id)
		m.stopped[id]++
	}
}

// Callbacks returns the callbacks registered for sessionID, if any.
func (m *MockStreamer) Callbacks(sessionID string) (stream.Callbacks, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cb, ok := m.callbacks[sessionID]
	return cb, ok
}

func (m *MockStreamer) Started(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started[sessionID]
}

func (m *MockStreamer) Stopped(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped[sessionID]
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/stream"
)

// Backend is the slice of the API surface the store drives. Satisfied by
// [github.com/desertthunder/mixtape/internal/api.Client].
type Backend interface {
	StartWorkflow(ctx context.Context, moodPrompt, genreHint string) (string, error)
	WorkflowStatus(ctx context.Context, sessionID string) (*models.SessionStatus, error)
	CancelWorkflow(ctx context.Context, sessionID string) error
	SaveToSpotify(ctx context.Context, playlistID string) (*models.Playlist, error)
	SyncFromSpotify(ctx context.Context, playlistID string) (*models.SyncSummary, error)
	EditPlaylist(ctx context.Context, playlistID, editType string, opts models.EditOptions) (*models.SessionStatus, error)
}

// Streamer owns realtime channels. Satisfied by [stream.Manager].
type Streamer interface {
	StartStreaming(sessionID string, cb stream.Callbacks) error
	StopStreaming(sessionID string)
	StopAll()
}

// Session is the client-side view of one generation session.
type Session struct {
	SessionID       string
	Status          Status
	CurrentStep     string
	MoodPrompt      string
	MoodAnalysis    *models.MoodAnalysis
	Recommendations []models.Track
	AnchorTracks    []models.Track
	Playlist        *models.Playlist
	Usage           *models.Usage
	Error           string
	StreamLost      bool
	AwaitingInput   bool
	HasPlaylist     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store is the single source of truth for the active session. It converts
// user intents and transport events into consistent state: all writes to the
// held [Session] go through the store's lock, and every async resolution is
// gated on the epoch captured when it began, so responses that outlive the
// session they belong to are discarded instead of applied.
type Store struct {
	mu      sync.Mutex
	backend Backend
	streams Streamer
	logger  *log.Logger

	session *Session
	loading bool
	epoch   uint64

	pollInterval time.Duration
	updates      chan Session
}

// StoreOpts configures a [Store].
type StoreOpts struct {
	Backend      Backend
	Streams      Streamer
	Logger       *log.Logger
	PollInterval time.Duration
	Buffer       int
}

// NewStore creates a workflow store.
func NewStore(opts StoreOpts) *Store {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}

	return &Store{
		backend:      opts.Backend,
		streams:      opts.Streams,
		logger:       opts.Logger,
		pollInterval: opts.PollInterval,
		updates:      make(chan Session, opts.Buffer),
	}
}

// Updates exposes session snapshots emitted after every state change.
// Sends are non-blocking, so a slow consumer misses intermediate snapshots
// rather than stalling the store.
func (s *Store) Updates() <-chan Session {
	return s.updates
}

// Session returns a snapshot of the held session, or false when none is set.
func (s *Store) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Session{}, false
	}
	return s.snapshotLocked(), true
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// StartWorkflow creates a new session for moodPrompt, replaces any held
// session, and opens a realtime channel for it. Returns the new session id.
func (s *Store) StartWorkflow(ctx context.Context, moodPrompt, genreHint string) (string, error) {
	var sessionID string
	err := s.retryOnce(func() error {
		var err error
		sessionID, err = s.backend.StartWorkflow(ctx, moodPrompt, genreHint)
		return err
	})
	if err != nil {
		s.setError(err)
		return "", err
	}

	s.mu.Lock()
	if prev := s.session; prev != nil && prev.SessionID != sessionID {
		s.streams.StopStreaming(prev.SessionID)
	}
	now := time.Now()
	s.session = &Session{
		SessionID:  sessionID,
		Status:     StatusStarted,
		MoodPrompt: moodPrompt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.epoch++
	epoch := s.epoch
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.streams.StartStreaming(sessionID, s.callbacksAt(epoch)); err != nil {
		s.logger.Warn("stream unavailable, status must be polled", "session", sessionID, "error", err)
		s.markStreamLost(epoch)
	}

	return sessionID, nil
}

// LoadWorkflow populates the store from an existing session id.
//
// Idempotent: when the held session already matches sessionID with a
// populated status, no fetch happens. Concurrent loads coalesce: a call
// that observes another load in flight returns immediately.
func (s *Store) LoadWorkflow(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	if s.session != nil && s.session.SessionID == sessionID && s.session.Status != "" {
		s.mu.Unlock()
		return nil
	}
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.epoch++
	epoch := s.epoch
	s.notifyLocked()
	s.mu.Unlock()

	var status *models.SessionStatus
	err := s.retryOnce(func() error {
		var err error
		status, err = s.backend.WorkflowStatus(ctx, sessionID)
		return err
	})

	s.mu.Lock()
	s.loading = false
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		// a failed fetch for one session must not taint a held session
		// with a different id
		if s.session != nil && s.session.SessionID == sessionID {
			s.session.Error = err.Error()
			s.notifyLocked()
		}
		s.mu.Unlock()
		return err
	}

	if prev := s.session; prev != nil && prev.SessionID != sessionID {
		s.streams.StopStreaming(prev.SessionID)
	}
	s.session = &Session{SessionID: sessionID}
	s.applyLocked(status)
	terminal := s.session.Status.Terminal()
	s.notifyLocked()
	s.mu.Unlock()

	if !terminal {
		if err := s.streams.StartStreaming(sessionID, s.callbacksAt(epoch)); err != nil {
			s.logger.Warn("stream unavailable, status must be polled", "session", sessionID, "error", err)
			s.markStreamLost(epoch)
		}
	}

	return nil
}

// StopWorkflow cancels the in-flight session. The realtime channel is torn
// down and the session marked cancelled locally even when the cancellation
// request itself fails, so stale events cannot resurrect the session.
func (s *Store) StopWorkflow(ctx context.Context) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return shared.ErrNoSession
	}
	sessionID := s.session.SessionID
	s.epoch++
	s.mu.Unlock()

	err := s.backend.CancelWorkflow(ctx, sessionID)

	s.streams.StopStreaming(sessionID)

	s.mu.Lock()
	if s.session != nil && s.session.SessionID == sessionID {
		s.session.Status = StatusCancelled
		s.session.UpdatedAt = time.Now()
		if err != nil {
			s.session.Error = err.Error()
		}
		s.notifyLocked()
	}
	s.mu.Unlock()

	return err
}

// ResetWorkflow clears the held session and closes its channel.
func (s *Store) ResetWorkflow() {
	s.mu.Lock()
	var sessionID string
	if s.session != nil {
		sessionID = s.session.SessionID
	}
	s.session = nil
	s.loading = false
	s.epoch++
	s.notifyLocked()
	s.mu.Unlock()

	if sessionID != "" {
		s.streams.StopStreaming(sessionID)
	}
}

// SaveToSpotify persists the completed playlist and records the reference.
func (s *Store) SaveToSpotify(ctx context.Context) (*models.Playlist, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, shared.ErrNoSession
	}
	if s.session.Status != StatusCompleted {
		status := s.session.Status
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot save a %s session", shared.ErrSessionState, status)
	}
	sessionID := s.session.SessionID
	epoch := s.epoch
	s.mu.Unlock()

	playlist, err := s.backend.SaveToSpotify(ctx, sessionID)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	if epoch == s.epoch && s.session != nil {
		s.session.Playlist = playlist
		s.session.HasPlaylist = true
		s.session.UpdatedAt = time.Now()
		s.notifyLocked()
	}
	s.mu.Unlock()

	return playlist, nil
}

// SyncFromSpotify reconciles the track list against the saved playlist's
// current contents. Mismatches are reported, never fatal: the summary comes
// back and a fresh status fetch picks up the reconciled list.
func (s *Store) SyncFromSpotify(ctx context.Context) (*models.SyncSummary, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, shared.ErrNoSession
	}
	if !s.session.HasPlaylist {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: session has no saved playlist", shared.ErrSessionState)
	}
	sessionID := s.session.SessionID
	epoch := s.epoch
	s.mu.Unlock()

	summary, err := s.backend.SyncFromSpotify(ctx, sessionID)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	if status, err := s.backend.WorkflowStatus(ctx, sessionID); err != nil {
		s.logger.Warn("post-sync refresh failed", "session", sessionID, "error", err)
	} else {
		s.applyAt(epoch, status)
	}

	return summary, nil
}

// ClearError clears the error field without altering status.
func (s *Store) ClearError() {
	s.mu.Lock()
	if s.session != nil && s.session.Error != "" {
		s.session.Error = ""
		s.notifyLocked()
	}
	s.mu.Unlock()
}

// PollWorkflow drives the fallback path: the realtime channel (if any) is
// torn down and the status endpoint polled on a fixed interval, feeding the
// same reconciliation as pushed events. Blocks until the session reaches a
// terminal status or ctx is cancelled.
func (s *Store) PollWorkflow(ctx context.Context) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return shared.ErrNoSession
	}
	sessionID := s.session.SessionID
	epoch := s.epoch
	s.session.StreamLost = false
	s.mu.Unlock()

	s.streams.StopStreaming(sessionID)

	fetch := func(ctx context.Context) (*models.SessionStatus, error) {
		return s.backend.WorkflowStatus(ctx, sessionID)
	}
	poller := stream.NewPoller(fetch, s.pollInterval, s.callbacksAt(epoch), s.logger)
	return poller.Run(ctx)
}

// Close tears down all transport.
func (s *Store) Close() {
	s.streams.StopAll()
}

// callbacksAt binds transport callbacks to the given epoch so resolutions
// arriving after the session changed identity are dropped.
func (s *Store) callbacksAt(epoch uint64) stream.Callbacks {
	return stream.Callbacks{
		OnStatus: func(status *models.SessionStatus) {
			s.applyAt(epoch, status)
		},
		OnComplete: func() {
			s.completeAt(epoch)
		},
		OnError: func(err error) {
			s.errorAt(epoch, err)
		},
		OnReconnect: func(attempt int) {
			s.resyncAt(epoch)
		},
	}
}

// applyAt reconciles an inbound status payload when the epoch still matches.
func (s *Store) applyAt(epoch uint64, status *models.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.session == nil {
		return
	}
	if s.applyLocked(status) {
		s.notifyLocked()
	}
}

// applyLocked is the single reconciliation entry point for pushed and polled
// status payloads. The server is authoritative: comparable fields are
// wholesale-replaced, never merged. Payloads for another session or moving
// the state machine backward are discarded. Reports whether anything applied.
func (s *Store) applyLocked(payload *models.SessionStatus) bool {
	if payload == nil || s.session == nil {
		return false
	}
	if payload.SessionID != "" && payload.SessionID != s.session.SessionID {
		s.logger.Debug("dropping status for foreign session", "got", payload.SessionID, "held", s.session.SessionID)
		return false
	}

	next := Status(payload.Status)
	if next == "" {
		next = s.session.Status
	}
	if s.session.Status != "" && !s.session.Status.CanTransition(next) && next != s.session.Status {
		s.logger.Debug("dropping stale status", "held", s.session.Status, "got", next)
		return false
	}

	s.session.Status = next
	s.session.CurrentStep = payload.CurrentStep
	s.session.MoodAnalysis = payload.MoodAnalysis
	s.session.Recommendations = payload.Recommendations
	s.session.AnchorTracks = payload.AnchorTracks
	s.session.Error = payload.Error
	s.session.AwaitingInput = payload.AwaitingInput
	s.session.HasPlaylist = payload.HasPlaylist
	if payload.Playlist != nil {
		s.session.Playlist = payload.Playlist
	}
	if payload.Usage != nil {
		s.session.Usage = payload.Usage
	}
	if payload.MoodPrompt != "" {
		s.session.MoodPrompt = payload.MoodPrompt
	}
	if !payload.CreatedAt.IsZero() {
		s.session.CreatedAt = payload.CreatedAt
	}
	if !payload.UpdatedAt.IsZero() {
		s.session.UpdatedAt = payload.UpdatedAt
	} else {
		s.session.UpdatedAt = time.Now()
	}

	return true
}

// completeAt tears down the session's channel after a terminal event.
func (s *Store) completeAt(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.session == nil {
		s.mu.Unlock()
		return
	}
	sessionID := s.session.SessionID
	s.notifyLocked()
	s.mu.Unlock()

	s.streams.StopStreaming(sessionID)
}

// errorAt surfaces a transport error through the session's error field.
// Reconnect exhaustion also marks the stream as lost: the session cannot
// advance again until a poller takes over.
func (s *Store) errorAt(epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.session == nil {
		return
	}
	s.session.Error = err.Error()
	if errors.Is(err, shared.ErrReconnectExhausted) {
		s.session.StreamLost = true
	}
	s.notifyLocked()
}

// markStreamLost flags the held session as cut off from pushed updates.
func (s *Store) markStreamLost(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.session == nil || s.session.StreamLost {
		return
	}
	s.session.StreamLost = true
	s.notifyLocked()
}

// resyncAt re-fetches status once after a reconnect, picking up anything
// pushed while the channel was down.
func (s *Store) resyncAt(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.session == nil {
		s.mu.Unlock()
		return
	}
	sessionID := s.session.SessionID
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status, err := s.backend.WorkflowStatus(ctx, sessionID)
		if err != nil {
			s.logger.Warn("post-reconnect refresh failed", "session", sessionID, "error", err)
			return
		}
		s.applyAt(epoch, status)
	}()
}

// retryOnce runs fn, retrying a single time when the failure was a transport
// error rather than a server verdict.
func (s *Store) retryOnce(fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, shared.ErrAPIRequest) {
		return err
	}
	s.logger.Debug("retrying after transport error", "error", err)
	return fn()
}

// setError records err on the held session, if any.
func (s *Store) setError(err error) {
	s.mu.Lock()
	if s.session != nil {
		s.session.Error = err.Error()
		s.notifyLocked()
	}
	s.mu.Unlock()
}

// snapshotLocked deep-copies the slices so consumers never share backing
// arrays with the store.
func (s *Store) snapshotLocked() Session {
	snap := *s.session
	snap.Recommendations = append([]models.Track(nil), s.session.Recommendations...)
	snap.AnchorTracks = append([]models.Track(nil), s.session.AnchorTracks...)
	return snap
}

func (s *Store) notifyLocked() {
	var snap Session
	if s.session != nil {
		snap = s.snapshotLocked()
	}
	select {
	case s.updates <- snap:
	default:
	}
}

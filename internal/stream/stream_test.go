package stream

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

func TestReconnectDelay(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, expected := range want {
		attempt := i + 1
		if got := reconnectDelay(base, max, attempt); got != expected {
			t.Errorf("attempt %d: expected %s, got %s", attempt, expected, got)
		}
	}

	if got := reconnectDelay(10*time.Second, 15*time.Second, 3); got != 15*time.Second {
		t.Errorf("expected cap at 15s, got %s", got)
	}
}

func TestSessionSocketURL(t *testing.T) {
	t.Run("SchemeMapping", func(t *testing.T) {
		cases := map[string]string{
			"http://localhost:8000":  "ws://localhost:8000/api/agents/recommendations/abc/ws",
			"https://api.mixtape.fm": "wss://api.mixtape.fm/api/agents/recommendations/abc/ws",
			"ws://localhost:8000":    "ws://localhost:8000/api/agents/recommendations/abc/ws",
		}
		for base, expected := range cases {
			got, err := SessionSocketURL(base, "abc")
			if err != nil {
				t.Errorf("%s: unexpected error %v", base, err)
				continue
			}
			if got != expected {
				t.Errorf("%s: expected %s, got %s", base, expected, got)
			}
		}
	})

	t.Run("UnsupportedScheme", func(t *testing.T) {
		if _, err := SessionSocketURL("ftp://example.com", "abc"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

var upgrader = websocket.Upgrader{}

// socketServer runs handler for every websocket upgrade against the server.
func socketServer(t *testing.T, handler func(ws *websocket.Conn)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handler(ws)
	}))
	t.Cleanup(server.Close)
	return server
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestManagerStreaming(t *testing.T) {
	t.Run("DispatchesStatusAndComplete", func(t *testing.T) {
		server := socketServer(t, func(ws *websocket.Conn) {
			ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"connected"}`))
			ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"status","status":{"session_id":"abc","status":"analyzing_mood"}}`))
			ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"complete","status":{"session_id":"abc","status":"completed"}}`))
			// wait for the client's close frame
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		})

		statuses := make(chan string, 4)
		complete := make(chan struct{})
		manager := NewManager(server.URL, nil, Options{})

		err := manager.StartStreaming("abc", Callbacks{
			OnStatus:   func(status *models.SessionStatus) { statuses <- status.Status },
			OnComplete: func() { close(complete) },
		})
		if err != nil {
			t.Fatalf("failed to start streaming: %v", err)
		}

		waitSignal(t, complete, "completion")

		if got := <-statuses; got != "analyzing_mood" {
			t.Errorf("expected analyzing_mood first, got %s", got)
		}
		if got := <-statuses; got != "completed" {
			t.Errorf("expected completed second, got %s", got)
		}

		deadline := time.Now().Add(2 * time.Second)
		for manager.Active("abc") {
			if time.Now().After(deadline) {
				t.Fatal("connection still registered after completion")
			}
			time.Sleep(10 * time.Millisecond)
		}
	})

	t.Run("AnswersServerPing", func(t *testing.T) {
		gotPong := make(chan struct{})
		server := socketServer(t, func(ws *websocket.Conn) {
			ws.WriteMessage(websocket.TextMessage, []byte("ping"))
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				if string(data) == "pong" {
					close(gotPong)
					ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"complete","status":{"session_id":"abc","status":"completed"}}`))
				}
			}
		})

		manager := NewManager(server.URL, nil, Options{})
		if err := manager.StartStreaming("abc", Callbacks{}); err != nil {
			t.Fatalf("failed to start streaming: %v", err)
		}
		defer manager.StopAll()

		waitSignal(t, gotPong, "pong reply")
	})

	t.Run("SurfacesServerError", func(t *testing.T) {
		server := socketServer(t, func(ws *websocket.Conn) {
			ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"generation failed"}`))
			ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"complete","status":{"session_id":"abc","status":"failed"}}`))
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		})

		errCh := make(chan error, 1)
		complete := make(chan struct{})
		manager := NewManager(server.URL, nil, Options{})
		err := manager.StartStreaming("abc", Callbacks{
			OnError:    func(err error) { errCh <- err },
			OnComplete: func() { close(complete) },
		})
		if err != nil {
			t.Fatalf("failed to start streaming: %v", err)
		}

		waitSignal(t, complete, "completion")

		select {
		case err := <-errCh:
			if !errors.Is(err, shared.ErrServer) {
				t.Errorf("expected ErrServer, got %v", err)
			}
		default:
			t.Error("expected server error to be forwarded")
		}
	})

	t.Run("ReplacesExistingConnection", func(t *testing.T) {
		var upgrades atomic.Int32
		server := socketServer(t, func(ws *websocket.Conn) {
			upgrades.Add(1)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		})

		manager := NewManager(server.URL, nil, Options{})
		defer manager.StopAll()

		if err := manager.StartStreaming("abc", Callbacks{}); err != nil {
			t.Fatalf("failed to start streaming: %v", err)
		}

		// let the first dial land before replacing it, otherwise the
		// replacement can stop the connection before it ever dials
		deadline := time.Now().Add(2 * time.Second)
		for upgrades.Load() == 0 {
			if time.Now().After(deadline) {
				t.Fatal("first connection never dialed")
			}
			time.Sleep(10 * time.Millisecond)
		}

		if err := manager.StartStreaming("abc", Callbacks{}); err != nil {
			t.Fatalf("failed to restart streaming: %v", err)
		}

		deadline = time.Now().Add(2 * time.Second)
		for upgrades.Load() < 2 {
			if time.Now().After(deadline) {
				t.Fatalf("expected 2 upgrades, got %d", upgrades.Load())
			}
			time.Sleep(10 * time.Millisecond)
		}

		if !manager.Active("abc") {
			t.Error("expected replacement connection to stay registered")
		}
	})

	t.Run("ManualStopSuppressesCallbacks", func(t *testing.T) {
		server := socketServer(t, func(ws *websocket.Conn) {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		})

		var errCount atomic.Int32
		manager := NewManager(server.URL, nil, Options{BaseDelay: time.Millisecond, MaxAttempts: 2})
		err := manager.StartStreaming("abc", Callbacks{
			OnError: func(error) { errCount.Add(1) },
		})
		if err != nil {
			t.Fatalf("failed to start streaming: %v", err)
		}

		// give the dial a moment to land before tearing down
		time.Sleep(100 * time.Millisecond)
		manager.StopStreaming("abc")
		time.Sleep(100 * time.Millisecond)

		if manager.Active("abc") {
			t.Error("expected connection to be deregistered")
		}
		if errCount.Load() != 0 {
			t.Errorf("manual stop should not fire OnError, got %d", errCount.Load())
		}
	})

	t.Run("ReconnectExhaustion", func(t *testing.T) {
		// A server that is already gone: every dial fails.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		baseURL := server.URL
		server.Close()

		var errCount atomic.Int32
		exhausted := make(chan struct{})
		manager := NewManager(baseURL, nil, Options{
			BaseDelay:   time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
			MaxAttempts: 2,
		})
		err := manager.StartStreaming("abc", Callbacks{
			OnError: func(err error) {
				if errors.Is(err, shared.ErrReconnectExhausted) && errCount.Add(1) == 1 {
					close(exhausted)
				}
			},
		})
		if err != nil {
			t.Fatalf("failed to start streaming: %v", err)
		}

		waitSignal(t, exhausted, "reconnect exhaustion")
		time.Sleep(50 * time.Millisecond)

		if errCount.Load() != 1 {
			t.Errorf("expected exactly one exhaustion error, got %d", errCount.Load())
		}
		if manager.Active("abc") {
			t.Error("expected exhausted connection to be deregistered")
		}
	})

	t.Run("MissingSessionID", func(t *testing.T) {
		manager := NewManager("http://localhost:8000", nil, Options{})
		if err := manager.StartStreaming("", Callbacks{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

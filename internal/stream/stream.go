package stream

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Callbacks receive dispatched session events. Nil fields are skipped.
type Callbacks struct {
	OnStatus    func(status *models.SessionStatus)
	OnComplete  func()
	OnError     func(err error)
	OnReconnect func(attempt int)
}

// Options tune connection behavior. Zero values fall back to [DefaultOptions].
type Options struct {
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	MaxAttempts      int
}

// DefaultOptions returns the production connection settings.
func DefaultOptions() Options {
	return Options{
		PingInterval:     25 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		BaseDelay:        time.Second,
		MaxDelay:         30 * time.Second,
		MaxAttempts:      5,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PingInterval <= 0 {
		o.PingInterval = def.PingInterval
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = def.HandshakeTimeout
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = def.BaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	return o
}

// reconnectDelay returns the wait before retry number attempt (1-based):
// base doubled per prior attempt, capped at max.
func reconnectDelay(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// SessionSocketURL converts an http(s) base URL into the ws(s) endpoint for
// the session's realtime channel.
func SessionSocketURL(baseURL, sessionID string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base url %q: %v", shared.ErrInvalidInput, baseURL, err)
	}

	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", shared.ErrInvalidInput, parsed.Scheme)
	}

	parsed.Path = fmt.Sprintf("/api/agents/recommendations/%s/ws", url.PathEscape(sessionID))
	parsed.RawQuery = ""
	return parsed.String(), nil
}

// Manager tracks live connections, one per session id.
type Manager struct {
	mu      sync.Mutex
	conns   map[string]*Conn
	baseURL string
	opts    Options
	logger  *log.Logger
}

// NewManager builds a [Manager] dialing against baseURL.
func NewManager(baseURL string, logger *log.Logger, opts Options) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		conns:   make(map[string]*Conn),
		baseURL: baseURL,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// StartStreaming opens a realtime channel for sessionID, replacing any
// existing connection for the same session.
func (m *Manager) StartStreaming(sessionID string, cb Callbacks) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	target, err := SessionSocketURL(m.baseURL, sessionID)
	if err != nil {
		return err
	}

	conn := &Conn{
		sessionID: sessionID,
		url:       target,
		cb:        cb,
		opts:      m.opts,
		logger:    m.logger,
		manager:   m,
		closed:    make(chan struct{}),
	}

	m.mu.Lock()
	prev := m.conns[sessionID]
	m.conns[sessionID] = conn
	m.mu.Unlock()

	if prev != nil {
		prev.stop()
	}

	go conn.run()
	return nil
}

// StopStreaming closes the session's connection, if any, without firing
// callbacks. Safe to call for sessions with no live stream.
func (m *Manager) StopStreaming(sessionID string) {
	m.mu.Lock()
	conn := m.conns[sessionID]
	delete(m.conns, sessionID)
	m.mu.Unlock()

	if conn != nil {
		conn.stop()
	}
}

// StopAll tears down every live connection.
func (m *Manager) StopAll() {
	m.mu.Lock()
	conns := make([]*Conn, 0, len(m.conns))
	for _, conn := range m.conns {
		conns = append(conns, conn)
	}
	m.conns = make(map[string]*Conn)
	m.mu.Unlock()

	for _, conn := range conns {
		conn.stop()
	}
}

// Active reports whether a live connection is registered for sessionID.
func (m *Manager) Active(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conns[sessionID]
	return ok
}

// remove deregisters conn unless it was already replaced.
func (m *Manager) remove(c *Conn) {
	m.mu.Lock()
	if m.conns[c.sessionID] == c {
		delete(m.conns, c.sessionID)
	}
	m.mu.Unlock()
}

// Conn is a single session's websocket connection with its reconnect loop.
type Conn struct {
	sessionID string
	url       string
	cb        Callbacks
	opts      Options
	logger    *log.Logger
	manager   *Manager

	mu     sync.Mutex
	ws     *websocket.Conn
	manual bool

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

// stop requests a manual teardown: sends a normal close frame, closes the
// socket, and suppresses any further reconnect attempts.
func (c *Conn) stop() {
	c.mu.Lock()
	c.manual = true
	ws := c.ws
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.closed) })

	if ws != nil {
		c.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		ws.Close()
	}
}

func (c *Conn) isManual() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manual
}

// run dials and services the connection until a clean close, a manual stop,
// or reconnect exhaustion.
func (c *Conn) run() {
	attempt := 0
	for {
		if c.isManual() {
			return
		}

		dialer := &websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
		ws, resp, err := dialer.Dial(c.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			c.logger.Debug("dial failed", "session", c.sessionID, "error", err)
			attempt++
			if attempt > c.opts.MaxAttempts {
				c.exhaust()
				return
			}
			if !c.wait(reconnectDelay(c.opts.BaseDelay, c.opts.MaxDelay, attempt)) {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.manual {
			c.mu.Unlock()
			ws.Close()
			return
		}
		c.ws = ws
		c.mu.Unlock()

		if attempt > 0 {
			c.logger.Info("stream reconnected", "session", c.sessionID, "attempt", attempt)
			if c.cb.OnReconnect != nil {
				c.cb.OnReconnect(attempt)
			}
			attempt = 0
		}

		pingDone := make(chan struct{})
		go c.pingLoop(ws, pingDone)

		done := c.readLoop(ws)
		close(pingDone)
		ws.Close()

		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()

		if done || c.isManual() {
			c.manager.remove(c)
			return
		}

		attempt++
		if attempt > c.opts.MaxAttempts {
			c.exhaust()
			return
		}
		if !c.wait(reconnectDelay(c.opts.BaseDelay, c.opts.MaxDelay, attempt)) {
			return
		}
	}
}

// exhaust deregisters the connection and surfaces the terminal reconnect
// error exactly once.
func (c *Conn) exhaust() {
	c.manager.remove(c)
	c.logger.Error("stream reconnect exhausted", "session", c.sessionID, "attempts", c.opts.MaxAttempts)
	if c.cb.OnError != nil {
		c.cb.OnError(fmt.Errorf("%w: gave up after %d attempts", shared.ErrReconnectExhausted, c.opts.MaxAttempts))
	}
}

// wait sleeps for d, returning false if the connection was stopped first.
func (c *Conn) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.closed:
		return false
	}
}

// readLoop dispatches inbound frames until the socket closes. It reports
// true when the stream finished on its own terms (server complete or a
// normal close frame) and reconnecting would be wrong.
func (c *Conn) readLoop(ws *websocket.Conn) bool {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
		}

		msg := ParseMessage(data)
		switch msg.Kind {
		case KindConnected:
			c.logger.Debug("stream connected", "session", c.sessionID)
		case KindStatus:
			if msg.Status != nil && c.cb.OnStatus != nil {
				c.cb.OnStatus(msg.Status)
			}
		case KindComplete:
			if msg.Status != nil && c.cb.OnStatus != nil {
				c.cb.OnStatus(msg.Status)
			}
			if c.cb.OnComplete != nil {
				c.cb.OnComplete()
			}
			c.writeMu.Lock()
			deadline := time.Now().Add(time.Second)
			_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			c.writeMu.Unlock()
			return true
		case KindError:
			if c.cb.OnError != nil {
				c.cb.OnError(fmt.Errorf("%w: %s", shared.ErrServer, msg.Err))
			}
		case KindPing:
			if err := c.send(ws, "pong"); err != nil {
				c.logger.Debug("pong failed", "session", c.sessionID, "error", err)
			}
		case KindPong:
			// keep-alive acknowledged
		default:
			c.logger.Debug("unrecognized stream message", "session", c.sessionID, "raw", msg.Raw)
		}
	}
}

// pingLoop sends the literal keep-alive frame on the configured interval.
func (c *Conn) pingLoop(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.send(ws, "ping"); err != nil {
				return
			}
		case <-done:
			return
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) send(ws *websocket.Conn, text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteMessage(websocket.TextMessage, []byte(text))
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// CallbackServer hosts a [CallbackHandler] on the loopback address named by
// the OAuth redirect URI, for the duration of one authorization flow.
type CallbackServer struct {
	handler *CallbackHandler
	addr    string
	srv     *http.Server
}

// NewCallbackServer builds a server listening where redirectURI points.
// Only loopback redirect URIs are accepted.
func NewCallbackServer(redirectURI string, handler *CallbackHandler) (*CallbackServer, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect uri %q: %v", shared.ErrInvalidConfig, redirectURI, err)
	}

	host := parsed.Hostname()
	if host != "localhost" && host != "127.0.0.1" && host != "::1" {
		return nil, fmt.Errorf("%w: redirect uri must be loopback, got %q", shared.ErrInvalidConfig, host)
	}

	port := parsed.Port()
	if port == "" {
		port = "80"
	}

	mux := http.NewServeMux()
	for _, route := range handler.Routes() {
		mux.Handle(route, handler)
	}

	addr := net.JoinHostPort(host, port)
	return &CallbackServer{
		handler: handler,
		addr:    addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Wait serves until the redirect lands, the timeout elapses, or ctx is
// cancelled, then shuts the listener down and returns the captured code.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-s.handler.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.Code, nil
	case err := <-serveErr:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: no authorization redirect received", shared.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

package stream

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// StatusFetcher pulls the current status for the session being polled.
type StatusFetcher func(ctx context.Context) (*models.SessionStatus, error)

// Poller drives the fallback path when no realtime channel is available,
// feeding fetched statuses through the same [Callbacks] as a live stream.
type Poller struct {
	fetch    StatusFetcher
	interval time.Duration
	cb       Callbacks
	logger   *log.Logger
}

// NewPoller builds a [Poller]. A non-positive interval defaults to 3s.
func NewPoller(fetch StatusFetcher, interval time.Duration, cb Callbacks, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Poller{fetch: fetch, interval: interval, cb: cb, logger: logger}
}

// Run polls until the session reaches a terminal status or ctx is cancelled.
// The first fetch happens immediately; fetch errors are forwarded to OnError
// and polling continues, since a transient server hiccup should not strand
// an in-flight session.
func (p *Poller) Run(ctx context.Context) error {
	for {
		status, err := p.fetch(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			p.logger.Debug("poll failed", "error", err)
			if p.cb.OnError != nil {
				p.cb.OnError(err)
			}
		case status != nil:
			if p.cb.OnStatus != nil {
				p.cb.OnStatus(status)
			}
			if terminalStatus(status.Status) {
				if p.cb.OnComplete != nil {
					p.cb.OnComplete()
				}
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

func terminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

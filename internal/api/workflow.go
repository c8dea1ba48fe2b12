package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// StartResponse is the backend's acknowledgement of a new generation session.
type StartResponse struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	MoodPrompt string `json:"mood_prompt"`
	Message    string `json:"message,omitempty"`
}

// StartWorkflow creates a new generation session for the given mood prompt.
//
// Returns the server-assigned session id. The prompt must be non-empty;
// genreHint is optional.
func (c *Client) StartWorkflow(ctx context.Context, moodPrompt, genreHint string) (string, error) {
	if strings.TrimSpace(moodPrompt) == "" {
		return "", fmt.Errorf("%w: mood prompt is empty", shared.ErrInvalidInput)
	}

	query := url.Values{"mood_prompt": {moodPrompt}}
	if genreHint != "" {
		query.Set("genre_hint", genreHint)
	}

	var resp StartResponse
	if err := c.do(ctx, http.MethodPost, "/api/agents/recommendations/start", query, nil, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("%w: start response missing session_id", shared.ErrServer)
	}

	return resp.SessionID, nil
}

// WorkflowStatus fetches the full status object for a session.
func (c *Client) WorkflowStatus(ctx context.Context, sessionID string) (*models.SessionStatus, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	var status models.SessionStatus
	path := fmt.Sprintf("/api/agents/recommendations/%s/status", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &status); err != nil {
		return nil, err
	}
	if status.SessionID == "" {
		status.SessionID = sessionID
	}

	return &status, nil
}

// CancelWorkflow requests cancellation of an in-flight session.
func (c *Client) CancelWorkflow(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	path := fmt.Sprintf("/api/agents/recommendations/%s", url.PathEscape(sessionID))
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

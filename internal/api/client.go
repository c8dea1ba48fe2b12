package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

const defaultRateLimit = 8

// Client provides typed access to the playlist generator backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
}

// NewClient creates a new backend client.
//
// An empty baseURL defaults to the local development server; a nil client
// defaults to [http.DefaultClient].
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
	}
}

// SetRateLimit overrides the outbound requests-per-second cap.
func (c *Client) SetRateLimit(rps int) {
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a request against the backend and decodes the JSON response
// into result, reporting 404s as [shared.ErrSessionNotFound].
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	return c.request(ctx, method, path, query, body, result, shared.ErrSessionNotFound)
}

// request performs a request against the backend and decodes the JSON
// response into result.
//
// All error normalization lives here: transport failures wrap
// [shared.ErrAPIRequest], auth failures wrap [shared.ErrNotAuthenticated], and
// other non-2xx statuses wrap [shared.ErrServer] with the body's message.
// notFound is the sentinel wrapped for 404 responses, so playlist endpoints
// can report [shared.ErrPlaylistNotFound] instead of the session variant.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, result any, notFound error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalizeStatus(resp.StatusCode, data, notFound)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// normalizeStatus maps a non-2xx response onto the sentinel error taxonomy.
func normalizeStatus(status int, body []byte, notFound error) error {
	msg := extractMessage(body)

	switch {
	case status == http.StatusUnauthorized:
		if msg == "" {
			msg = "login required"
		}
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	case status == http.StatusNotFound:
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return fmt.Errorf("%w: %s", notFound, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, msg)
	case status == http.StatusServiceUnavailable:
		if msg == "" {
			msg = "backend unavailable"
		}
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, msg)
	default:
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return fmt.Errorf("%w: %s", shared.ErrServer, msg)
	}
}

// extractMessage pulls a human-readable message out of an error response body.
//
// The backend uses FastAPI-style {"detail": ...} bodies; message and error
// keys are accepted as fallbacks.
func extractMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, key := range []string{"detail", "message", "error"} {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}

	return ""
}

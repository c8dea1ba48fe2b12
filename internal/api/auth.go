package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// LoginRequest exchanges an authorization code for a backend session token.
//
// The verifier is the PKCE code_verifier stashed before the redirect; the
// backend completes the exchange with Spotify.
type LoginRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
	Verifier    string `json:"code_verifier"`
}

// LoginResponse carries the backend session token and the verified user.
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login completes the auth flow with the backend and stores the returned
// token on the client for subsequent requests.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response missing token", shared.ErrAuthFailed)
	}

	c.SetToken(resp.Token)
	return &resp, nil
}

// Verify returns the authenticated user, or [shared.ErrNotAuthenticated].
func (c *Client) Verify(ctx context.Context) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, nil, &resp); err != nil {
		return nil, err
	}

	return &resp.User, nil
}

// Logout invalidates the backend session and clears the client token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil); err != nil {
		return err
	}

	c.token = ""
	return nil
}

// Dashboard fetches account activity aggregates.
func (c *Client) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/auth/dashboard", nil, nil, &dashboard); err != nil {
		return nil, err
	}

	return &dashboard, nil
}

// Quota fetches the account's generation allowance.
func (c *Client) Quota(ctx context.Context) (*models.Quota, error) {
	var quota models.Quota
	if err := c.do(ctx, http.MethodGet, "/api/auth/quota", nil, nil, &quota); err != nil {
		return nil, err
	}

	return &quota, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/desertthunder/mixtape/internal/api"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/shared"
)

// spotifyScopes is what the backend needs to create and modify playlists on
// the user's behalf.
var spotifyScopes = []string{
	"user-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
}

const connectTimeout = 5 * time.Minute

// AuthConnect runs the OAuth authorization-code flow with PKCE: stash a
// verifier, send the browser to Spotify, catch the redirect on a loopback
// listener, and let the backend complete the code exchange.
func (r *Runner) AuthConnect(ctx context.Context, cmd *cli.Command) error {
	clientID := r.config.Credentials.Spotify.ClientID
	redirectURI := r.config.Credentials.Spotify.RedirectURI
	if clientID == "" || redirectURI == "" {
		return fmt.Errorf("%w: credentials.spotify.client_id and redirect_uri must be set in %s", shared.ErrMissingCredentials, cmd.String("config"))
	}

	state := shared.GenerateID()
	verifier := oauth2.GenerateVerifier()

	if db, err := r.database(); err == nil {
		if err := repositories.NewPKCERepository(db).Save(state, verifier); err != nil {
			r.logger.Warn("failed to stash verifier", "error", err)
		}
	} else {
		r.logger.Debug("verifier kept in memory only", "error", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      spotifyScopes,
		Endpoint:    spotify.Endpoint,
	}
	authURL := oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	handler := server.NewCallbackHandler(state)
	callback, err := server.NewCallbackServer(redirectURI, handler)
	if err != nil {
		return err
	}

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize:\n\n%s\n\n", authURL)
	} else {
		r.writePlain("Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL to authorize:\n\n%s\n\n", authURL)
		}
	}

	r.logger.Info("waiting for authorization redirect", "redirect_uri", redirectURI)

	code, err := callback.Wait(ctx, connectTimeout)
	if err != nil {
		return err
	}

	if db, dbErr := r.database(); dbErr == nil {
		if stashed, takeErr := repositories.NewPKCERepository(db).Take(state); takeErr != nil {
			return takeErr
		} else if stashed != verifier {
			return fmt.Errorf("%w: stashed verifier does not match", shared.ErrStateMismatch)
		}
	}

	resp, err := r.client.Login(ctx, api.LoginRequest{
		Code:        code,
		RedirectURI: redirectURI,
		Verifier:    verifier,
	})
	if err != nil {
		return err
	}

	if err := r.saveToken(resp.Token); err != nil {
		r.logger.Warn("failed to persist token", "error", err)
	}

	if db, err := r.database(); err == nil {
		if err := repositories.NewUserCacheRepository(db, 0).Put(&resp.User); err != nil {
			r.logger.Warn("failed to cache user", "error", err)
		}
	}

	r.logger.Info("authentication successful", "user", resp.User.DisplayName)
	return r.writePlain("✓ Connected as %s\n", resp.User.DisplayName)
}

// AuthStatus shows the authenticated user, preferring the local cache and
// falling back to a backend verify.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if db, err := r.database(); err == nil {
		if user, err := repositories.NewUserCacheRepository(db, 0).Get(); err == nil {
			r.writePlain("✓ Logged in as %s (cached)\n", user.DisplayName)
			if user.Email != "" {
				r.writePlain("Email: %s\n", user.Email)
			}
			return nil
		}
	}

	user, err := r.client.Verify(ctx)
	if err != nil {
		return err
	}

	if db, dbErr := r.database(); dbErr == nil {
		if err := repositories.NewUserCacheRepository(db, 0).Put(user); err != nil {
			r.logger.Debug("failed to refresh user cache", "error", err)
		}
	}

	r.writePlain("✓ Logged in as %s\n", user.DisplayName)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	return nil
}

// AuthLogout invalidates the backend session and clears local credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.client.Logout(ctx); err != nil {
		r.logger.Warn("backend logout failed", "error", err)
	}

	r.store.Close()

	if db, err := r.database(); err == nil {
		if err := repositories.NewUserCacheRepository(db, 0).Clear(); err != nil {
			r.logger.Warn("failed to clear user cache", "error", err)
		}
	}

	if err := r.clearToken(); err != nil {
		r.logger.Warn("failed to remove token file", "error", err)
	}

	return r.writePlain("✓ Logged out\n")
}

// AuthDashboard shows account activity and the generation quota.
func (r *Runner) AuthDashboard(ctx context.Context, cmd *cli.Command) error {
	dashboard, err := r.client.Dashboard(ctx)
	if err != nil {
		return err
	}

	quota, err := r.client.Quota(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Account Activity")
	r.writePlain("Sessions: %d\n", dashboard.TotalSessions)
	r.writePlain("Playlists saved: %d\n", dashboard.TotalPlaylists)
	r.writePlain("Quota: %d/%d generations used\n", quota.Used, quota.Limit)

	if len(dashboard.Recent) > 0 {
		r.writePlainln("Recent sessions:")
		for _, session := range dashboard.Recent {
			r.writePlain("  %s  %-12s  %s\n", session.SessionID, session.Status, session.MoodPrompt)
		}
	}

	return nil
}

// tokenPath is where the backend session token lives between invocations.
func tokenPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mixtape", "token"), nil
}

func (r *Runner) saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// restoreToken loads a persisted session token onto the API client. Missing
// or unreadable token files just leave the client unauthenticated.
func (r *Runner) restoreToken() {
	path, err := tokenPath()
	if err != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	if token := strings.TrimSpace(string(data)); token != "" {
		r.client.SetToken(token)
	}
}

func (r *Runner) clearToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	return nil
}

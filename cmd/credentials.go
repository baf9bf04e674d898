package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/zenithx/internal/server"
	"github.com/desertthunder/zenithx/internal/session"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// credentials is the signed-in identity stored at client.token_path.
type credentials struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	Expiry      time.Time `json:"expiry,omitzero"`
}

func (c *credentials) expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}

func (c *credentials) user() session.User {
	return session.User{ID: c.UserID, Email: c.Email, Token: c.AccessToken}
}

// credentialsFromToken reads the identity out of an access token without verifying it; the gateway verifies.
func credentialsFromToken(raw string) (*credentials, error) {
	var claims server.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if claims.UserID() == "" {
		return nil, fmt.Errorf("%w: token has no subject", shared.ErrInvalidToken)
	}

	c := &credentials{AccessToken: raw, UserID: claims.UserID(), Email: claims.Email}
	if claims.ExpiresAt != nil {
		c.Expiry = claims.ExpiresAt.Time
	}
	return c, nil
}

func (r *Runner) tokenPath() string {
	return shared.ExpandHome(r.config.Client.TokenPath)
}

// loadCredentials returns the stored identity, or [shared.ErrNotAuthenticated] when there is none or it expired.
func (r *Runner) loadCredentials() (*credentials, error) {
	data, err := os.ReadFile(r.tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: run `zenithx auth login` first", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: corrupt credentials file: %v", shared.ErrInvalidToken, err)
	}
	if c.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty credentials file", shared.ErrNotAuthenticated)
	}
	if c.expired(r.now()) {
		return nil, fmt.Errorf("%w: run `zenithx auth login` again", shared.ErrTokenExpired)
	}
	return &c, nil
}

func (r *Runner) saveCredentials(c *credentials) error {
	path := r.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	r.logger.Debug("credentials saved", "path", path)
	return nil
}

// removeCredentials forgets the stored identity. A missing file is not an error.
func (r *Runner) removeCredentials() error {
	if err := os.Remove(r.tokenPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// sessionUser loads the stored identity as a session user.
func (r *Runner) sessionUser() (session.User, error) {
	creds, err := r.loadCredentials()
	if err != nil {
		return session.User{}, err
	}
	return creds.user(), nil
}

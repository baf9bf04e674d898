package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/zenithx/internal/server"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const browserLoginTimeout = 5 * time.Minute

func (r *Runner) oauthConfig() *oauth2.Config {
	a := r.config.Auth
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURI,
		Scopes:       []string{"openid", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.AuthorizeURL,
			TokenURL: a.TokenURL,
		},
	}
}

// AuthLogin signs in against the identity provider and stores the access token.
//
// With --browser it runs the authorization code flow through a local callback server; otherwise it uses the
// password grant with --username and --password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	conf := r.oauthConfig()

	var token *oauth2.Token
	var err error
	if cmd.Bool("browser") {
		token, err = r.browserLogin(ctx, conf)
	} else {
		username, password := cmd.String("username"), cmd.String("password")
		if username == "" || password == "" {
			return fmt.Errorf("%w: --username and --password are required without --browser", shared.ErrMissingArgument)
		}
		r.logger.Info("requesting token", "user", username)
		token, err = conf.PasswordCredentialsToken(ctx, username, password)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	creds, err := credentialsFromToken(token.AccessToken)
	if err != nil {
		return err
	}
	if !token.Expiry.IsZero() {
		creds.Expiry = token.Expiry
	}
	if err := r.saveCredentials(creds); err != nil {
		return err
	}

	r.logger.Info("authentication successful", "user_id", creds.UserID)
	return r.writePlain("✓ Signed in as %s\n", displayName(creds))
}

func (r *Runner) browserLogin(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	redirect, err := url.Parse(conf.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: invalid auth.redirect_uri %q", shared.ErrInvalidConfig, conf.RedirectURL)
	}

	handler := server.NewOAuthHandler(conf, shared.GenerateID())
	router := server.NewBasicRouter()
	router.Handler(handler)

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for callback: %w", err)
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := handler.AuthURL()
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
	}
	r.writePlain("Open this URL to sign in:\n%s\n", authURL)

	ctx, cancel := context.WithTimeout(ctx, browserLoginTimeout)
	defer cancel()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: no callback received", shared.ErrTimeout)
	}
}

// AuthToken mints a development token with the configured secret.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	auth := server.NewAuthenticator(r.config.Auth.JWTSecret, r.config.Auth.TokenTTL())
	raw, err := auth.IssueToken(cmd.String("user"), cmd.String("email"))
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		return r.writePlain("%s\n", raw)
	}

	creds, err := credentialsFromToken(raw)
	if err != nil {
		return err
	}
	if err := r.saveCredentials(creds); err != nil {
		return err
	}
	return r.writePlain("✓ Token issued for %s\n", displayName(creds))
}

// AuthStatus reports gateway health and the stored identity.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	resp, err := r.api.Get(ctx, "/health", "")
	if err != nil {
		r.writePlain("✗ Gateway unreachable: %v\n", err)
	} else if resp.OK() {
		status := "unknown"
		if data, ok := resp.JSONData.(map[string]any); ok {
			if s, ok := data["status"].(string); ok {
				status = s
			}
		}
		r.writePlain("✓ Gateway is healthy\nStatus: %s\n", status)
	} else {
		r.writePlain("✗ Gateway returned status %d\n", resp.StatusCode)
	}

	creds, err := r.loadCredentials()
	switch {
	case err == nil:
		r.writePlain("Authentication: ✓ Signed in as %s\n", displayName(creds))
		if !creds.Expiry.IsZero() {
			r.writePlain("Expires: %s\n", creds.Expiry.Local().Format(time.RFC1123))
		}
	case errors.Is(err, shared.ErrTokenExpired):
		r.writePlain("Authentication: ✗ Token expired\n")
	default:
		r.writePlain("Authentication: ✗ Not signed in\n")
	}
	return nil
}

// AuthLogout removes the stored identity.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.removeCredentials(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

func displayName(c *credentials) string {
	if c.Email != "" {
		return fmt.Sprintf("%s (%s)", c.Email, c.UserID)
	}
	return c.UserID
}

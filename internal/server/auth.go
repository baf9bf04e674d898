package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "zenithx"

// Claims are the token claims the gateway reads. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Authenticator verifies and issues HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an authenticator for secret. A non-positive ttl issues tokens that never expire.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken signs a token for userID.
func (a *Authenticator) IssueToken(userID, email string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: user id is required", shared.ErrMissingArgument)
	}
	if len(a.secret) == 0 {
		return "", fmt.Errorf("%w: jwt secret is not configured", shared.ErrMissingConfig)
	}

	now := a.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   issuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if a.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies raw and returns its claims.
func (a *Authenticator) ParseToken(raw string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret is not configured", shared.ErrNotAuthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	case !token.Valid || claims.Subject == "":
		return nil, fmt.Errorf("%w: token has no subject", shared.ErrInvalidToken)
	}
	return claims, nil
}

// Authenticate reads the bearer token of r.
func (a *Authenticator) Authenticate(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("%w: missing Authorization header", shared.ErrNotAuthenticated)
	}

	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: invalid Authorization header", shared.ErrNotAuthenticated)
	}
	return a.ParseToken(strings.TrimSpace(raw))
}

type claimsKey struct{}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by [WithClaims].
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

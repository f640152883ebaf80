// Package auth implements the credential side of the authentication core:
// extracting and validating the identity claim a request carries, and
// establishing or clearing credentials after login, registration and
// logout. Two schemes exist, cookie-session and bearer-token; exactly one
// is active per deployment, selected in configuration. Everything above
// this package works against the scheme-neutral interfaces so the
// lifecycle handlers never learn which scheme is in effect.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jacrowe/clientbook/internal/repository"
	"github.com/jacrowe/clientbook/internal/utils"
)

// SessionCookie is the name of the cookie carrying the opaque session id.
const SessionCookie = "session_id"

// ErrNoCredential is returned when a request carries no credential at all
// (no cookie, no Authorization header).
var ErrNoCredential = errors.New("no credential presented")

// CredentialVerifier extracts the identity claim from a request and
// validates it, returning the asserted handle. Any failure (absent,
// malformed, expired or unverifiable credential) must be treated by
// callers as the same unauthenticated condition; the distinct errors exist
// for logging only.
type CredentialVerifier interface {
	Verify(c echo.Context) (handle string, err error)
}

// SessionVerifier resolves the session cookie against the server-side
// session store.
type SessionVerifier struct {
	Sessions *repository.SessionRepo
}

func (v *SessionVerifier) Verify(c echo.Context) (string, error) {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCredential
	}
	handle, err := v.Sessions.CurrentHandle(c.Request().Context(), cookie.Value)
	if err != nil {
		return "", fmt.Errorf("session lookup: %w", err)
	}
	return handle, nil
}

// TokenVerifier checks a bearer token from the Authorization header
// against the configured public key.
type TokenVerifier struct {
	Public *rsa.PublicKey
}

func (v *TokenVerifier) Verify(c echo.Context) (string, error) {
	raw := bearerToken(c)
	if raw == "" {
		return "", ErrNoCredential
	}
	claims, err := utils.VerifyToken(v.Public, raw)
	if err != nil {
		return "", err
	}
	return claims.Username(), nil
}

// bearerToken returns the Authorization header value with an optional
// "Bearer " prefix stripped. The original clients send the bare token, so
// both forms are accepted.
func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

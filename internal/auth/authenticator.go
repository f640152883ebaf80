package auth

import (
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jacrowe/clientbook/internal/repository"
	"github.com/jacrowe/clientbook/internal/utils"
)

// Authenticator establishes a fresh credential for a verified handle on
// the outgoing response, and clears it on logout. Implementations must be
// safe to Clear on a request that carries no credential.
type Authenticator interface {
	Establish(c echo.Context, handle string) error
	Clear(c echo.Context) error
}

// SessionAuthenticator mints an opaque session id, records the identity
// claim in the session store and hands the id to the client in an
// HttpOnly cookie.
type SessionAuthenticator struct {
	Sessions *repository.SessionRepo
	TTL      time.Duration
}

func (a *SessionAuthenticator) Establish(c echo.Context, handle string) error {
	sid := uuid.NewString()
	if err := a.Sessions.Establish(c.Request().Context(), sid, handle); err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().UTC().Add(a.TTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear drops the server-side claim and expires the cookie. A request
// without a session cookie clears nothing and succeeds.
func (a *SessionAuthenticator) Clear(c echo.Context) error {
	cookie, err := c.Cookie(SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := a.Sessions.Clear(c.Request().Context(), cookie.Value); err != nil {
			return err
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// TokenAuthenticator issues a signed bearer token in the Authorization
// response header. There is no server-side state and no revocation list:
// logout is a client-side discard, which the short token TTL backs up.
type TokenAuthenticator struct {
	Private *rsa.PrivateKey
	TTL     time.Duration
}

func (a *TokenAuthenticator) Establish(c echo.Context, handle string) error {
	tok, err := utils.NewAuthToken(a.Private, handle, a.TTL)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderAuthorization, tok.Token)
	return nil
}

func (a *TokenAuthenticator) Clear(c echo.Context) error { return nil }

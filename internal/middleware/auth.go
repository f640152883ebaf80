package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/auth"
	"github.com/jacrowe/clientbook/internal/model"
)

// principalKey is the echo context key holding the resolved user.
const principalKey = "principal"

// UserFinder is the slice of the user repository the gate needs: resolve a
// handle to a live (non-deleted) principal.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

// Authenticate guards an operation so it only runs for a resolved,
// existing principal. The verifier validates whatever credential the
// request carries; the finder resolves the asserted handle against
// persisted users. All failure shapes (no credential, malformed or
// expired credential, credential referencing a deleted or renamed user)
// produce the same 401 body and a Location hint back to the login
// resource, so the response never reveals which check failed. The
// distinction survives only in debug logs.
func Authenticate(v auth.CredentialVerifier, users UserFinder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			handle, err := v.Verify(c)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("credential rejected")
				return unauthenticated(c)
			}
			u, err := users.FindByUsername(c.Request().Context(), handle)
			if err != nil {
				// Stale credential for a deleted or renamed user; answer
				// exactly like a missing credential.
				log.Debug().Err(err).Str("handle", handle).Msg("principal not found")
				return unauthenticated(c)
			}
			c.Set(principalKey, u)
			return next(c)
		}
	}
}

// Principal returns the user attached by Authenticate. Handlers behind the
// gate may assume it is present.
func Principal(c echo.Context) model.User {
	u, _ := c.Get(principalKey).(model.User)
	return u
}

func unauthenticated(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderLocation, "/v1/login")
	return c.JSON(http.StatusUnauthorized, echo.Map{"errors": "Insufficient credentials provided."})
}

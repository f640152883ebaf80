package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/auth"
	"github.com/jacrowe/clientbook/internal/config"
	"github.com/jacrowe/clientbook/internal/handler"
	"github.com/jacrowe/clientbook/internal/middleware"
)

// Deps carries everything route registration needs. The verifier and the
// handlers are already bound to the active auth scheme, so this layer
// only decides which routes sit behind the gate.
type Deps struct {
	Auth     *handler.AuthHandler
	Account  *handler.AccountHandler
	Clients  *handler.ClientHandler
	Projects *handler.ProjectHandler
	Verifier auth.CredentialVerifier
	Users    middleware.UserFinder
	RDB      *redis.Client
	Log      zerolog.Logger
}

// Register wires up all routes. The credential endpoints are rate
// limited; everything else under /v1 requires a resolved principal.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Unauthenticated credential endpoints, throttled per IP and route to
	// damp online password guessing.
	g := e.Group("/v1")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.RDB))
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/logout", d.Auth.Logout)

	// Everything below requires a resolved, existing principal.
	v1 := e.Group("/v1")
	v1.Use(middleware.Authenticate(d.Verifier, d.Users, d.Log))

	v1.GET("/account", d.Account.Me)
	v1.PUT("/account", d.Account.UpdateProfile)
	v1.PUT("/account/password", d.Account.ChangePassword)
	v1.POST("/account/email", d.Account.RequestEmailChange)
	v1.PUT("/account/email", d.Account.ConfirmEmailChange)
	v1.POST("/account/confirm", d.Account.RequestConfirm)
	v1.PUT("/account/confirm", d.Account.Confirm)
	v1.DELETE("/account", d.Account.Delete)

	v1.GET("/clients", d.Clients.List)
	v1.POST("/clients", d.Clients.Create)
	v1.GET("/clients/:id", d.Clients.Get)
	v1.PUT("/clients/:id", d.Clients.Update)
	v1.DELETE("/clients/:id", d.Clients.Delete)

	v1.GET("/clients/:id/projects", d.Projects.ListByClient)
	v1.POST("/clients/:id/projects", d.Projects.Create)
	v1.PUT("/projects/:id", d.Projects.Update)
	v1.DELETE("/projects/:id", d.Projects.Delete)
}

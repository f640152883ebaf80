package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/auth"
	"github.com/jacrowe/clientbook/internal/model"
	"github.com/jacrowe/clientbook/internal/queue"
	"github.com/jacrowe/clientbook/internal/repository"
	"github.com/jacrowe/clientbook/internal/utils"
	"github.com/jacrowe/clientbook/internal/validation"
)

// UserStore is the user persistence surface the account handlers need.
// *repository.UserRepo satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, firstName, lastName string) error
	UpdatePassword(ctx context.Context, id uint64, digest string) error
	UpdateEmail(ctx context.Context, id uint64, email string) error
	Confirm(ctx context.Context, id uint64) error
	SoftDelete(ctx context.Context, id uint64) error
	HardDelete(ctx context.Context, id uint64) error
}

// Notifier hands account events to the message broker. Delivery is
// best-effort; implementations swallow broker errors.
type Notifier interface {
	UserRegistered(ctx context.Context, ev queue.UserRegisteredEvent)
	EmailChangeRequested(ctx context.Context, ev queue.EmailChangeRequestedEvent)
	ConfirmRequested(ctx context.Context, ev queue.ConfirmRequestedEvent)
}

// AuthHandler bundles dependencies for the register/login/logout
// endpoints. It is scheme-agnostic: the Authenticator decides whether a
// session cookie or a bearer token is handed out.
type AuthHandler struct {
	Users  UserStore
	Auth   auth.Authenticator
	Hash   utils.Argon2Params
	Log    zerolog.Logger
	Notify Notifier
}

func NewAuthHandler(users UserStore, a auth.Authenticator, hash utils.Argon2Params, log zerolog.Logger, n Notifier) *AuthHandler {
	return &AuthHandler{Users: users, Auth: a, Hash: hash, Log: log, Notify: n}
}

// ----- DTOs -----

type registerReq struct {
	Username  string `json:"username" validate:"required,min=3,max=40"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"omitempty,min=2,max=40,alpha"`
	LastName  string `json:"last_name" validate:"omitempty,min=2,max=40,alpha"`
	Password  string `json:"password" validate:"required,min=6,max=40"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userPart struct {
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Confirmed   bool      `json:"confirmed"`
	MemberSince time.Time `json:"member_since"`
}

func presentUser(u model.User) userPart {
	return userPart{
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Confirmed:   u.Confirmed,
		MemberSince: u.MemberSince,
	}
}

// Register creates a user and authenticates it immediately: the response
// carries the same credential a login would.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	digest, err := utils.HashPassword(req.Password, h.Hash)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: digest,
	}
	id, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"errors": "User with that username already exists."})
		}
		h.Log.Error().Err(err).Msg("create user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	u.ID = id
	u.MemberSince = time.Now().UTC()

	// The password has been verified by construction; hand out the
	// credential exactly as login would.
	if err := h.Auth.Establish(c, u.Username); err != nil {
		h.Log.Error().Err(err).Msg("establish credential failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}

	if h.Notify != nil {
		h.Notify.UserRegistered(ctx, queue.UserRegisteredEvent{
			Username:     u.Username,
			Email:        u.Email,
			RegisteredAt: u.MemberSince.Format(time.RFC3339),
		})
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/account")
	return c.JSON(http.StatusCreated, presentUser(u))
}

// Login verifies the handle/password pair and establishes a credential.
// A missing user and a wrong password produce the same response; the two
// are only told apart in debug logs.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	req.Username = strings.TrimSpace(req.Username)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.Log.Debug().Str("username", req.Username).Msg("login: unknown username")
			return invalidCredentials(c)
		}
		h.Log.Error().Err(err).Msg("login: query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Log.Debug().Str("username", req.Username).Msg("login: password mismatch")
		return invalidCredentials(c)
	}

	// Password verified; only now is a credential issued.
	if err := h.Auth.Establish(c, u.Username); err != nil {
		h.Log.Error().Err(err).Msg("establish credential failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/account")
	return c.JSON(http.StatusCreated, presentUser(u))
}

// Logout clears the current credential. Logging out twice is harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Auth.Clear(c); err != nil {
		h.Log.Error().Err(err).Msg("clear credential failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func invalidCredentials(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"errors": "Username and password do not match."})
}

// validationFailed surfaces a per-field error map as a 422, matching the
// {"errors": {...}} shape the clients expect.
func validationFailed(c echo.Context, err error) error {
	if fields := validation.Fields(err); fields != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": fields})
	}
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
}

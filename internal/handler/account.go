package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/auth"
	"github.com/jacrowe/clientbook/internal/config"
	"github.com/jacrowe/clientbook/internal/middleware"
	"github.com/jacrowe/clientbook/internal/queue"
	"github.com/jacrowe/clientbook/internal/utils"
)

// AccountHandler implements the lifecycle operations of the authenticated
// account: profile reads and updates, password change, email change with
// confirmation, account confirmation and deletion. Every endpoint runs
// behind the auth gate, so a resolved principal is always on the context.
type AccountHandler struct {
	Users      UserStore
	Auth       auth.Authenticator
	Keys       config.KeyPair
	Hash       utils.Argon2Params
	ConfirmTTL time.Duration
	Log        zerolog.Logger
	Notify     Notifier
}

// ----- DTOs -----

type updateProfileReq struct {
	FirstName string `json:"first_name" validate:"omitempty,min=2,max=40,alpha"`
	LastName  string `json:"last_name" validate:"omitempty,min=2,max=40,alpha"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=40"`
}

type emailChangeReq struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

type tokenReq struct {
	Token string `json:"token" validate:"required"`
}

type deleteAccountReq struct {
	Password  string `json:"password" validate:"required"`
	Permanent bool   `json:"permanent"`
}

// Me returns the acting principal's profile.
func (h *AccountHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, presentUser(middleware.Principal(c)))
}

// UpdateProfile overwrites the mutable profile fields.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	u := middleware.Principal(c)
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}

	ctx, cancel := timeout(c)
	defer cancel()
	if err := h.Users.UpdateProfile(ctx, u.ID, u.FirstName, u.LastName); err != nil {
		h.Log.Error().Err(err).Msg("update profile failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusAccepted, presentUser(u))
}

// ChangePassword re-verifies the current password before accepting a new
// one. An attacker holding a live credential but not the password cannot
// rotate it.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	u := middleware.Principal(c)
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		h.Log.Debug().Str("username", u.Username).Msg("password change: current password mismatch")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Must enter proper current password."})
	}
	digest, err := utils.HashPassword(req.NewPassword, h.Hash)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}

	ctx, cancel := timeout(c)
	defer cancel()
	if err := h.Users.UpdatePassword(ctx, u.ID, digest); err != nil {
		h.Log.Error().Err(err).Msg("update password failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusAccepted, presentUser(u))
}

// RequestEmailChange issues a time-bound token binding the acting user to
// the new address and queues it for delivery. Nothing is mutated until
// the token comes back through ConfirmEmailChange.
func (h *AccountHandler) RequestEmailChange(c echo.Context) error {
	var req emailChangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	u := middleware.Principal(c)
	newEmail := strings.ToLower(strings.TrimSpace(req.NewEmail))

	tok, err := utils.NewEmailChangeToken(h.Keys.Private, u.Username, newEmail, h.ConfirmTTL)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue email-change token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	if h.Notify != nil {
		h.Notify.EmailChangeRequested(c.Request().Context(), queue.EmailChangeRequestedEvent{
			Username:    u.Username,
			NewEmail:    newEmail,
			Token:       tok.Token,
			RequestedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "Confirmation has been sent to the new address."})
}

// ConfirmEmailChange verifies the email-change token, checks it was
// issued to the acting user and applies the embedded address. Invalid,
// expired or foreign tokens mutate nothing.
func (h *AccountHandler) ConfirmEmailChange(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	u := middleware.Principal(c)

	claims, err := utils.VerifyToken(h.Keys.Public, req.Token)
	if err != nil {
		h.Log.Debug().Err(err).Str("username", u.Username).Msg("email change: token rejected")
		return invalidToken(c)
	}
	if claims.Username() != u.Username || claims.NewEmail == "" {
		h.Log.Debug().Str("username", u.Username).Msg("email change: subject mismatch or empty payload")
		return invalidToken(c)
	}

	ctx, cancel := timeout(c)
	defer cancel()
	if err := h.Users.UpdateEmail(ctx, u.ID, claims.NewEmail); err != nil {
		h.Log.Error().Err(err).Msg("update email failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	u.Email = claims.NewEmail
	return c.JSON(http.StatusAccepted, presentUser(u))
}

// RequestConfirm issues an account-confirmation token and queues it for
// delivery to the current address.
func (h *AccountHandler) RequestConfirm(c echo.Context) error {
	u := middleware.Principal(c)
	tok, err := utils.NewConfirmToken(h.Keys.Private, u.Username, h.ConfirmTTL)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue confirm token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	if h.Notify != nil {
		h.Notify.ConfirmRequested(c.Request().Context(), queue.ConfirmRequestedEvent{
			Username:    u.Username,
			Email:       u.Email,
			Token:       tok.Token,
			RequestedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "Confirmation has been sent."})
}

// Confirm verifies an account-confirmation token for the acting user and
// marks the account confirmed.
func (h *AccountHandler) Confirm(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	u := middleware.Principal(c)

	claims, err := utils.VerifyToken(h.Keys.Public, req.Token)
	if err != nil {
		h.Log.Debug().Err(err).Str("username", u.Username).Msg("confirm: token rejected")
		return invalidToken(c)
	}
	if claims.Username() != u.Username {
		h.Log.Debug().Str("username", u.Username).Msg("confirm: subject mismatch")
		return invalidToken(c)
	}

	ctx, cancel := timeout(c)
	defer cancel()
	if err := h.Users.Confirm(ctx, u.ID); err != nil {
		h.Log.Error().Err(err).Msg("confirm user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	u.Confirmed = true
	return c.JSON(http.StatusAccepted, presentUser(u))
}

// Delete removes the account after re-verifying the password. The default
// is a soft delete; "permanent": true removes the row. Either way the
// current credential is cleared.
func (h *AccountHandler) Delete(c echo.Context) error {
	var req deleteAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	u := middleware.Principal(c)
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Log.Debug().Str("username", u.Username).Msg("delete account: password mismatch")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Username and password do not match."})
	}

	ctx, cancel := timeout(c)
	defer cancel()
	var err error
	if req.Permanent {
		err = h.Users.HardDelete(ctx, u.ID)
	} else {
		err = h.Users.SoftDelete(ctx, u.ID)
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("delete account failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	if err := h.Auth.Clear(c); err != nil {
		h.Log.Error().Err(err).Msg("clear credential after delete failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": "Account has been deleted."})
}

func invalidToken(c echo.Context) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Provided token is invalid or has expired."})
}

func timeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/middleware"
	"github.com/jacrowe/clientbook/internal/model"
	"github.com/jacrowe/clientbook/internal/repository"
)

// ClientHandler exposes CRUD over the acting user's clients. All routes
// sit behind the auth gate; the repository scopes every query to the
// principal so cross-user access is impossible by construction.
type ClientHandler struct {
	Clients *repository.ClientRepo
	Log     zerolog.Logger
}

func NewClientHandler(clients *repository.ClientRepo, log zerolog.Logger) *ClientHandler {
	return &ClientHandler{Clients: clients, Log: log}
}

type clientReq struct {
	Name        string `json:"name" validate:"required,min=2,max=40"`
	Email       string `json:"email" validate:"required,email"`
	Description string `json:"description" validate:"omitempty,min=5,max=500"`
}

type clientPart struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func presentClient(cl model.Client) clientPart {
	return clientPart{ID: cl.ID, Name: cl.Name, Email: cl.Email, Description: cl.Description, CreatedAt: cl.CreatedAt}
}

// List returns the principal's non-deleted clients.
func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()

	clients, err := h.Clients.ListByUser(ctx, middleware.Principal(c).ID)
	if err != nil {
		h.Log.Error().Err(err).Msg("list clients failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	out := make([]clientPart, 0, len(clients))
	for _, cl := range clients {
		out = append(out, presentClient(cl))
	}
	return c.JSON(http.StatusOK, echo.Map{"clients": out})
}

// Create adds a client for the principal.
func (h *ClientHandler) Create(c echo.Context) error {
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	cl := model.Client{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Description: req.Description,
	}
	id, err := h.Clients.Create(ctx, middleware.Principal(c).ID, cl)
	if err != nil {
		if errors.Is(err, repository.ErrClientExists) {
			return c.JSON(http.StatusConflict, echo.Map{"errors": "Client with that name and email already exists."})
		}
		h.Log.Error().Err(err).Msg("create client failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	cl.ID = id
	cl.CreatedAt = time.Now().UTC()
	return c.JSON(http.StatusCreated, presentClient(cl))
}

// Get returns one client with its id taken from the path.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}

	ctx, cancel := timeout(c)
	defer cancel()

	cl, err := h.Clients.FindByID(ctx, middleware.Principal(c).ID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"errors": "Client does not exist."})
		}
		h.Log.Error().Err(err).Msg("get client failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusOK, presentClient(cl))
}

// Update overwrites a client's fields.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	uid := middleware.Principal(c).ID
	err = h.Clients.Update(ctx, uid, id,
		strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"errors": "Client does not exist."})
		case errors.Is(err, repository.ErrClientExists):
			return c.JSON(http.StatusConflict, echo.Map{"errors": "Client with that name and email already exists."})
		}
		h.Log.Error().Err(err).Msg("update client failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	cl, err := h.Clients.FindByID(ctx, uid, id)
	if err != nil {
		h.Log.Error().Err(err).Msg("reload client failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusAccepted, presentClient(cl))
}

// Delete soft-deletes a client, or removes the row when ?permanent=true.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}

	ctx, cancel := timeout(c)
	defer cancel()

	uid := middleware.Principal(c).ID
	if c.QueryParam("permanent") == "true" {
		err = h.Clients.HardDelete(ctx, uid, id)
	} else {
		err = h.Clients.SoftDelete(ctx, uid, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"errors": "Client does not exist."})
		}
		h.Log.Error().Err(err).Msg("delete client failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": "Client has been successfully deleted."})
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

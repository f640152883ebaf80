package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/middleware"
	"github.com/jacrowe/clientbook/internal/model"
	"github.com/jacrowe/clientbook/internal/repository"
)

// ProjectHandler exposes CRUD over projects, always scoped through the
// owning client to the acting principal.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
	Log      zerolog.Logger
}

func NewProjectHandler(projects *repository.ProjectRepo, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Log: log}
}

type projectReq struct {
	Name        string `json:"name" validate:"required,min=2,max=150"`
	Description string `json:"description" validate:"omitempty,min=5,max=500"`
}

type projectPart struct {
	ID          uint64    `json:"id"`
	ClientID    uint64    `json:"client_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func presentProject(p model.Project) projectPart {
	return projectPart{ID: p.ID, ClientID: p.ClientID, Name: p.Name, Description: p.Description, CreatedAt: p.CreatedAt}
}

// ListByClient returns the non-deleted projects of one client.
func (h *ProjectHandler) ListByClient(c echo.Context) error {
	clientID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}

	ctx, cancel := timeout(c)
	defer cancel()

	projects, err := h.Projects.ListByClient(ctx, middleware.Principal(c).ID, clientID)
	if err != nil {
		h.Log.Error().Err(err).Msg("list projects failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	out := make([]projectPart, 0, len(projects))
	for _, p := range projects {
		out = append(out, presentProject(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": out})
}

// Create adds a project under the client named in the path.
func (h *ProjectHandler) Create(c echo.Context) error {
	clientID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	p := model.Project{Name: strings.TrimSpace(req.Name), Description: req.Description}
	id, err := h.Projects.Create(ctx, middleware.Principal(c).ID, clientID, p)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"errors": "Client does not exist."})
		case errors.Is(err, repository.ErrProjectExists):
			return c.JSON(http.StatusConflict, echo.Map{"errors": "Project with that name already exists."})
		}
		h.Log.Error().Err(err).Msg("create project failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	p.ID = id
	p.ClientID = clientID
	p.CreatedAt = time.Now().UTC()
	return c.JSON(http.StatusCreated, presentProject(p))
}

// Update overwrites a project's fields.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	uid := middleware.Principal(c).ID
	err = h.Projects.Update(ctx, uid, id, strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"errors": "Project does not exist."})
		case errors.Is(err, repository.ErrProjectExists):
			return c.JSON(http.StatusConflict, echo.Map{"errors": "Project with that name already exists."})
		}
		h.Log.Error().Err(err).Msg("update project failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	p, err := h.Projects.FindByID(ctx, uid, id)
	if err != nil {
		h.Log.Error().Err(err).Msg("reload project failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusAccepted, presentProject(p))
}

// Delete soft-deletes a project, or removes the row when ?permanent=true.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": "Invalid data sent to this route."})
	}

	ctx, cancel := timeout(c)
	defer cancel()

	uid := middleware.Principal(c).ID
	if c.QueryParam("permanent") == "true" {
		err = h.Projects.HardDelete(ctx, uid, id)
	} else {
		err = h.Projects.SoftDelete(ctx, uid, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"errors": "Project does not exist."})
		}
		h.Log.Error().Err(err).Msg("delete project failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"errors": "internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": "Project has been successfully deleted."})
}

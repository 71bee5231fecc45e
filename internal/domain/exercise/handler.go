package exercise

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/pkg/pagination"
)

// Handler exposes the exercise API. Library writes and assignment
// management are staff operations; patients list their plan and mark
// exercises done.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	exercises := api.Group("/exercises")
	exercises.GET("", h.HandleList)
	exercises.GET("/:code", h.HandleGet)
	staff := exercises.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleTherapist))
	staff.POST("", h.HandleCreate)
	staff.PUT("/:code", h.HandleUpdate)
	staff.DELETE("/:code", h.HandleDelete)

	plans := api.Group("/patients/:patientCode/exercises")
	plans.GET("", h.HandleListForPatient)
	plans.POST("/:code/done", h.HandleMarkDone)
	planStaff := plans.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleTherapist))
	planStaff.POST("", h.HandleAssign)
	planStaff.DELETE("/:code", h.HandleUnassign)
}

func (h *Handler) HandleCreate(c echo.Context) error {
	var e Exercise
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateExercise(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) HandleGet(c echo.Context) error {
	e, err := h.svc.GetExercise(c.Request().Context(), c.Param("code"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) HandleUpdate(c echo.Context) error {
	var e Exercise
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e.Code = c.Param("code")
	if err := h.svc.UpdateExercise(c.Request().Context(), &e); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) HandleDelete(c echo.Context) error {
	if err := h.svc.DeleteExercise(c.Request().Context(), c.Param("code")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleList(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListExercises(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type assignRequest struct {
	ExerciseCode string `json:"exercise_code"`
	Notes        string `json:"notes"`
}

func (h *Handler) HandleAssign(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	err := h.svc.Assign(c.Request().Context(), c.Param("patientCode"), req.ExerciseCode, req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) HandleUnassign(c echo.Context) error {
	err := h.svc.Unassign(c.Request().Context(), c.Param("patientCode"), c.Param("code"))
	if err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleListForPatient(c echo.Context) error {
	items, err := h.svc.ListForPatient(c.Request().Context(), c.Param("patientCode"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) HandleMarkDone(c echo.Context) error {
	err := h.svc.MarkDone(c.Request().Context(), c.Param("patientCode"), c.Param("code"))
	if err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrNotAssigned):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotAssigned.Error())
	case errors.Is(err, ErrAlreadyAssigned):
		return echo.NewHTTPError(http.StatusBadRequest, ErrAlreadyAssigned.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

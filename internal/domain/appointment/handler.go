package appointment

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/domain/codepool"
	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/pkg/pagination"
)

// TherapistResolver maps an authenticated user to their therapist
// record, so ownership checks can run against the token.
type TherapistResolver interface {
	TherapistIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Handler exposes the appointment API.
type Handler struct {
	svc        *Service
	therapists TherapistResolver
}

func NewHandler(svc *Service, therapists TherapistResolver) *Handler {
	return &Handler{svc: svc, therapists: therapists}
}

// RegisterRoutes wires the appointment endpoints. Self-service booking
// is public; everything else requires a session.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/bookings", h.HandleSelfServiceBook)

	api.GET("/appointments/mine", h.HandleListMine)

	staff := api.Group("/appointments", auth.RequireRole(auth.RoleAdmin, auth.RoleTherapist))
	staff.POST("", h.HandleStaffBook)
	staff.GET("", h.HandleList)
	staff.GET("/:code", h.HandleGet)
	staff.POST("/:code/confirm", h.HandleConfirm)
	staff.POST("/:code/cancel", h.HandleCancel)
	staff.POST("/:code/complete", h.HandleComplete)
}

func (h *Handler) HandleSelfServiceBook(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	appt, err := h.svc.Book(c.Request().Context(), req, codepool.ActorSelfService)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) HandleStaffBook(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor := codepool.ActorAdmin
	if auth.RoleFromContext(c.Request().Context()) == auth.RoleTherapist {
		actor = codepool.ActorTherapist
	}
	appt, err := h.svc.Book(c.Request().Context(), req, actor)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) HandleList(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	if auth.RoleFromContext(ctx) == auth.RoleTherapist {
		therapistID, err := h.actingTherapist(c)
		if err != nil {
			return err
		}
		items, total, err := h.svc.ListByTherapist(ctx, therapistID, pg.Limit, pg.Offset)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.List(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) HandleListMine(c echo.Context) error {
	ctx := c.Request().Context()
	email := auth.EmailFromContext(ctx)
	if email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session email")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByEmail(ctx, email, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) HandleGet(c echo.Context) error {
	appt, err := h.svc.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) HandleConfirm(c echo.Context) error {
	therapistID, err := h.actingTherapist(c)
	if err != nil {
		return err
	}
	if err := h.svc.Confirm(c.Request().Context(), c.Param("code"), therapistID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type cancelRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

func (h *Handler) HandleCancel(c echo.Context) error {
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Cancel(c.Request().Context(), c.Param("code"), req.Reason, req.Details); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleComplete(c echo.Context) error {
	therapistID, err := h.actingTherapist(c)
	if err != nil {
		return err
	}
	if err := h.svc.Complete(c.Request().Context(), c.Param("code"), therapistID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// actingTherapist resolves the caller's therapist record. Admins act
// without one and skip ownership checks.
func (h *Handler) actingTherapist(c echo.Context) (uuid.UUID, error) {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != auth.RoleTherapist {
		return uuid.Nil, nil
	}
	userID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	therapistID, err := h.therapists.TherapistIDForUser(ctx, userID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "no therapist record for this account")
	}
	return therapistID, nil
}

func mapError(err error) error {
	var vErr ValidationError
	if errors.As(err, &vErr) {
		return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrPastDate),
		errors.Is(err, ErrPatientExists),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, codepool.ErrUnknownActor),
		errors.Is(err, codepool.ErrPoolExhausted):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

package cart

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/domain/catalog"
	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/pkg/pagination"
)

// Handler exposes the cart API. All endpoints operate on the
// authenticated user's own cart.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/cart")
	g.GET("", h.HandleList)
	g.POST("/items", h.HandleAdd)
	g.PUT("/items/:productID", h.HandleUpdateQuantity)
	g.DELETE("/items/:productID", h.HandleRemove)
	g.POST("/checkout", h.HandleCheckout)

	api.GET("/purchases", h.HandleListPurchases)
}

func sessionUser(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	return id, nil
}

type addRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (h *Handler) HandleAdd(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.AddItem(c.Request().Context(), userID, req.ProductID, req.Quantity); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateQuantity(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdateQuantity(c.Request().Context(), userID, productID, req.Quantity); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleRemove(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := h.svc.RemoveItem(c.Request().Context(), userID, productID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type cartResponse struct {
	Lines []*Line `json:"lines"`
	Total float64 `json:"total"`
}

func (h *Handler) HandleList(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	lines, total, err := h.svc.ListCart(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cartResponse{Lines: lines, Total: total})
}

func (h *Handler) HandleCheckout(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	purchase, err := h.svc.Checkout(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, purchase)
}

func (h *Handler) HandleListPurchases(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPurchases(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, catalog.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrBadQuantity),
		errors.Is(err, ErrInactiveItem),
		errors.Is(err, catalog.ErrInsufficient):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

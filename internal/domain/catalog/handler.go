package catalog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/pkg/pagination"
)

// Handler exposes the catalog API. Reads need a session; writes are
// admin-only.
type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	services := api.Group("/services")
	services.GET("", h.HandleListServices)
	services.GET("/:id", h.HandleGetService)
	serviceAdmin := services.Group("", auth.RequireRole(auth.RoleAdmin))
	serviceAdmin.POST("", h.HandleCreateService)
	serviceAdmin.PUT("/:id", h.HandleUpdateService)
	serviceAdmin.DELETE("/:id", h.HandleDeleteService)

	products := api.Group("/products")
	products.GET("", h.HandleListProducts)
	products.GET("/:id", h.HandleGetProduct)
	productAdmin := products.Group("", auth.RequireRole(auth.RoleAdmin))
	productAdmin.POST("", h.HandleCreateProduct)
	productAdmin.PUT("/:id", h.HandleUpdateProduct)
	productAdmin.DELETE("/:id", h.HandleDeleteProduct)
}

func (h *Handler) HandleCreateService(c echo.Context) error {
	var s Service
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.catalog.CreateService(c.Request().Context(), &s); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, ErrCodeTaken.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) HandleGetService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}
	s, err := h.catalog.GetService(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrServiceNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) HandleUpdateService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}
	var s Service
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s.ID = id
	if err := h.catalog.UpdateService(c.Request().Context(), &s); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrServiceNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) HandleDeleteService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}
	if err := h.catalog.DeleteService(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrServiceNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleListServices(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.catalog.ListServices(c.Request().Context(),
		c.QueryParam("category"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) HandleCreateProduct(c echo.Context) error {
	var p Product
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.catalog.CreateProduct(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) HandleGetProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrProductNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) HandleUpdateProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	var p Product
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.ID = id
	if err := h.catalog.UpdateProduct(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrProductNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) HandleDeleteProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrProductNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleListProducts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.catalog.ListProducts(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

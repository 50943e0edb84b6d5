package cid

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.Staff...)
	api.GET("/cids", h.SearchCatalog, staff)
}

func (h *Handler) SearchCatalog(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	res := h.svc.SearchCatalog(c.Request().Context(), c.QueryParam("q"), limit)
	return c.JSON(res.Status(http.StatusOK), res)
}

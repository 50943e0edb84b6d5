package procedure

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
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
	read := auth.RequireRole(auth.Staff...)
	api.GET("/procedures", h.ListProcedures, read)
	api.GET("/procedures/:id", h.GetProcedure, read)

	write := auth.RequireRole(auth.RoleAdmin)
	api.POST("/procedures", h.CreateProcedure, write)
	api.PUT("/procedures/:id", h.UpdateProcedure, write)
	api.DELETE("/procedures/:id", h.DeactivateProcedure, write)
}

func (h *Handler) CreateProcedure(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CreateProcedure(c.Request().Context(), sess, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) GetProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.GetProcedure(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) ListProcedures(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var f ListFilter
	f.IncludeInactive, _ = strconv.ParseBool(c.QueryParam("includeInactive"))
	if v := c.QueryParam("specialtyId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid specialtyId")
		}
		f.SpecialtyID = &id
	}
	res := h.svc.ListProcedures(c.Request().Context(), sess, f)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) UpdateProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.UpdateProcedure(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) DeactivateProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.DeactivateProcedure(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func sessionAndID(c echo.Context) (auth.Session, uuid.UUID, error) {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return auth.Session{}, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return auth.Session{}, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return sess, id, nil
}

package dentist

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
	api.GET("/dentists", h.ListDentists, read)
	api.GET("/dentists/me", h.GetOwnProfile, read)
	api.GET("/dentists/:id", h.GetDentist, read)
	api.GET("/dentists/:id/procedures", h.ListDentistProcedures, read)

	// Dentists may edit their own profile; the service enforces ownership.
	self := auth.RequireRole(auth.RoleAdmin, auth.RoleDentist)
	api.PUT("/dentists/:id", h.UpdateDentist, self)
	api.POST("/dentists/:id/procedures", h.LinkProcedure, self)
	api.DELETE("/dentists/:id/procedures/:procedureId", h.UnlinkProcedure, self)

	admin := auth.RequireRole(auth.RoleAdmin)
	api.POST("/dentists", h.CreateDentist, admin)
	api.DELETE("/dentists/:id", h.DeactivateDentist, admin)
}

func (h *Handler) CreateDentist(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CreateDentist(c.Request().Context(), sess, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) GetDentist(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.GetDentist(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) GetOwnProfile(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	res := h.svc.GetOwnProfile(c.Request().Context(), sess)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) ListDentists(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	includeInactive, _ := strconv.ParseBool(c.QueryParam("includeInactive"))
	res := h.svc.ListDentists(c.Request().Context(), sess, includeInactive)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) UpdateDentist(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.UpdateDentist(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) DeactivateDentist(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.DeactivateDentist(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) ListDentistProcedures(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.ListDentistProcedures(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) LinkProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in LinkInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.LinkProcedure(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) UnlinkProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	procedureID, err := uuid.Parse(c.Param("procedureId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid procedureId")
	}
	res := h.svc.UnlinkProcedure(c.Request().Context(), sess, id, procedureID)
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

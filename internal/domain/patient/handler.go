package patient

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.Staff...)
	api.GET("/patients", h.SearchPatients, staff)
	api.GET("/patients/:id", h.GetPatient, staff)
	api.POST("/patients", h.CreatePatient, staff)
	api.PUT("/patients/:id", h.UpdatePatient, staff)

	admin := auth.RequireRole(auth.RoleAdmin)
	api.DELETE("/patients/:id", h.DeactivatePatient, admin)
	api.POST("/patients/:id/reactivate", h.ReactivatePatient, admin)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CreatePatient(c.Request().Context(), sess, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) GetPatient(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.GetPatient(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.UpdatePatient(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) DeactivatePatient(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.DeactivatePatient(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) ReactivatePatient(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.ReactivatePatient(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	f := SearchFilter{Query: c.QueryParam("q")}
	f.IncludeInactive, _ = strconv.ParseBool(c.QueryParam("includeInactive"))
	res := h.svc.SearchPatients(c.Request().Context(), sess, f, pagination.FromContext(c))
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

package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
	loc *time.Location
}

func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.Staff...)
	api.GET("/appointments", h.ListDay, staff)
	api.GET("/appointments/:id", h.GetAppointment, staff)
	api.POST("/appointments", h.CreateAppointment, staff)
	api.PATCH("/appointments/:id/status", h.UpdateStatus, staff)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CreateAppointment(c.Request().Context(), sess, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.GetAppointment(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

// ListDay defaults to today in the clinic's time zone.
func (h *Handler) ListDay(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	day := c.QueryParam("date")
	if day == "" {
		day = time.Now().In(h.loc).Format("2006-01-02")
	}
	res := h.svc.ListDay(c.Request().Context(), sess, day)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in StatusInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.UpdateStatus(c.Request().Context(), sess, id, in)
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

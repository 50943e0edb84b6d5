package payment

import (
	"net/http"
	"time"

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
	billing := auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist)
	api.GET("/payments", h.ListPayments, billing)
	api.GET("/payments/:id", h.GetPayment, billing)
	api.POST("/payments", h.CreatePayment, billing)
	api.POST("/payments/:id/cancel", h.CancelPayment, billing)
}

func (h *Handler) CreatePayment(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CreatePayment(c.Request().Context(), sess, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) GetPayment(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.GetPayment(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) CancelPayment(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.CancelPayment(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

// ListPayments accepts from/to as RFC 3339 timestamps.
func (h *Handler) ListPayments(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	f := ListFilter{Method: c.QueryParam("method"), Status: c.QueryParam("status")}
	if raw := c.QueryParam("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		f.PatientID = &id
	}
	if f.From, err = optionalTime(c.QueryParam("from")); err != nil {
		return err
	}
	if f.To, err = optionalTime(c.QueryParam("to")); err != nil {
		return err
	}
	res := h.svc.ListPayments(c.Request().Context(), sess, f, pagination.FromContext(c))
	return c.JSON(res.Status(http.StatusOK), res)
}

func optionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid date filter, use RFC 3339")
	}
	return &t, nil
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

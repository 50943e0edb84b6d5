package attendance

import (
	"net/http"

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
	desk := auth.RequireRole(auth.Staff...)
	api.POST("/attendances", h.CheckIn, desk)
	api.GET("/attendances", h.ListAttendances, desk)
	api.GET("/attendances/waiting-room", h.ListWaitingRoom, desk)
	api.GET("/attendances/:id", h.GetAttendance, desk)
	api.POST("/attendances/:id/cancel", h.Cancel, desk)
	api.POST("/attendances/:id/no-show", h.MarkNoShow, desk)
	api.GET("/attendances/:id/documents", h.ListDocuments, desk)

	clinical := auth.RequireRole(auth.RoleAdmin, auth.RoleDentist)
	api.POST("/attendances/:id/start", h.Start, clinical)
	api.POST("/attendances/:id/finish", h.Finish, clinical)
	api.POST("/attendances/:id/cids", h.AddCID, clinical)
	api.DELETE("/attendances/:id/cids/:cidId", h.RemoveCID, clinical)
	api.POST("/attendances/:id/procedures", h.AddProcedure, clinical)
	api.DELETE("/attendances/:id/procedures/:procedureId", h.RemoveProcedure, clinical)
	api.PUT("/attendances/:id/odontogram", h.UpdateOdontogram, clinical)
	api.POST("/attendances/:id/documents", h.CreateDocument, clinical)
}

func (h *Handler) CheckIn(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	var in CheckInInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CheckIn(c.Request().Context(), sess, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) ListWaitingRoom(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	res := h.svc.ListWaitingRoom(c.Request().Context(), sess)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) ListAttendances(c echo.Context) error {
	sess, err := auth.SessionOf(c)
	if err != nil {
		return err
	}
	f := ListFilter{Status: c.QueryParam("status"), Day: c.QueryParam("date")}
	if f.PatientID, err = optionalUUID(c.QueryParam("patientId")); err != nil {
		return err
	}
	if f.DentistID, err = optionalUUID(c.QueryParam("dentistId")); err != nil {
		return err
	}
	res := h.svc.ListAttendances(c.Request().Context(), sess, f, pagination.FromContext(c))
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) GetAttendance(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.GetAttendance(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Start(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in StartInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.Start(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Finish(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.Finish(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Cancel(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.Cancel(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.MarkNoShow(c.Request().Context(), sess, id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) AddCID(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in AddCIDInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.AddCID(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) RemoveCID(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	cidID, err := uuid.Parse(c.Param("cidId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cid id")
	}
	res := h.svc.RemoveCID(c.Request().Context(), sess, id, cidID)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) AddProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in AddProcedureInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.AddProcedure(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) RemoveProcedure(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	rowID, err := uuid.Parse(c.Param("procedureId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid procedure id")
	}
	res := h.svc.RemoveProcedure(c.Request().Context(), sess, id, rowID)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) UpdateOdontogram(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in OdontogramInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.UpdateOdontogram(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) CreateDocument(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	var in DocumentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := h.svc.CreateDocument(c.Request().Context(), sess, id, in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) ListDocuments(c echo.Context) error {
	sess, id, err := sessionAndID(c)
	if err != nil {
		return err
	}
	res := h.svc.ListDocuments(c.Request().Context(), sess, id)
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

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id filter")
	}
	return &id, nil
}

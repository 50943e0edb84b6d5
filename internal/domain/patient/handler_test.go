package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/middleware"
	"github.com/odonto/clinic/internal/platform/result"
)

func newTestHandler() (*Handler, *echo.Echo, auth.Session) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New(), ownerSession()
}

func withSession(req *http.Request, sess auth.Session) *http.Request {
	return req.WithContext(auth.WithSession(req.Context(), sess))
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e, sess := newTestHandler()

	body := `{"name":"Maria","cpf":"529.982.247-25"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(withSession(req, sess), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var res result.Result[Patient]
	json.Unmarshal(rec.Body.Bytes(), &res)
	if !res.Success || res.Data.Name != "Maria" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_CreatePatient_ValidationStatus(t *testing.T) {
	h, e, sess := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"name":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(withSession(req, sess), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected failed envelope, got %s", rec.Body.String())
	}
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e, sess := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(withSession(req, sess), rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetPatient(c)
	if err == nil {
		t.Fatal("expected error for invalid id")
	}
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_MissingSession(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SearchPatients(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

// slowRepo blocks searches until the request deadline fires, as pgx does.
type slowRepo struct {
	*mockRepo
}

func (r slowRepo) Search(ctx context.Context, _ uuid.UUID, _ SearchFilter, _, _ int) ([]*Patient, int, error) {
	<-ctx.Done()
	return nil, 0, fmt.Errorf("search patients: %w", ctx.Err())
}

func TestHandler_SearchPatients_DeadlineAnswers504(t *testing.T) {
	h := NewHandler(NewService(slowRepo{newMockRepo()}, zerolog.Nop()))
	e := echo.New()
	e.GET("/api/v1/patients", h.SearchPatients, middleware.RequestTimeout(20*time.Millisecond))

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/patients?q=ana", nil), ownerSession())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d: %s", rec.Code, rec.Body.String())
	}
	var res result.Result[any]
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Success || res.Error != apperr.TimeoutMessage {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

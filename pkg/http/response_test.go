package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func record(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := fn(c); err != nil {
		t.Fatalf("write response: %v", err)
	}
	var env APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return rec, env
}

func TestDataResponseStatusMatchesEnvelope(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return DataResponse(c, http.StatusUnprocessableEntity, nil)
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrote HTTP %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if env.Status != http.StatusUnprocessableEntity || env.Message != "Unprocessable Entity" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestAppErrorResponseUsesErrorStatus(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return AppErrorResponse(c, UnavailableError("ERR_UPSTREAM", "upstream down"))
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("wrote HTTP %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if env.Status != http.StatusServiceUnavailable {
		t.Fatalf("envelope status %d, want %d", env.Status, http.StatusServiceUnavailable)
	}
}

func TestAppErrorResponseUnknownErrorIs500(t *testing.T) {
	rec, _ := record(t, func(c echo.Context) error {
		return AppErrorResponse(c, http.ErrHandlerTimeout)
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("wrote HTTP %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

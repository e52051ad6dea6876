package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "NewsTrader/pkg/logger"
)

type limitRequest struct {
	Limit int `query:"limit" default:"20" validate:"gte=1,lte=50"`
}

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/items", func(c echo.Context) error {
		req := &limitRequest{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return ListResponse(c, make([]int, req.Limit), int64(req.Limit))
	})
	e.GET("/boom", func(c echo.Context) error {
		return NewAppError("ERR_CONFLICT", "", "already running", http.StatusConflict)
	})
}

func serve(t *testing.T, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	s := NewServer(applogger.NewNop(), []Handler{testHandler{}}, WithMetricsPath(""))
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestDefaultsAndValidation(t *testing.T) {
	rec, body := serve(t, "/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, body.Status)
	assert.EqualValues(t, 20, body.Data.(map[string]interface{})["total"])

	rec, body = serve(t, "/items?limit=51")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Contains(t, rec.Body.String(), "ERR_LTE")
	assert.Contains(t, rec.Body.String(), "Limit must be less than or equal to 50")
}

func TestErrorHandlerUsesEnvelope(t *testing.T) {
	rec, body := serve(t, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")

	rec, _ = serve(t, "/boom")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already running")
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/autoservice/pkg/errorbank"
)

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Error   ErrorBody      `json:"error"`
	Meta    map[string]any `json:"meta"`
}

func render(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fn(c))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestBuilderSuccess(t *testing.T) {
	rec, body := render(t, func(c echo.Context) error {
		return New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"id": 1}).WithMeta("count", 1).WithMeta("", "ignored").Build()
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, map[string]any{"id": float64(1)}, body.Data)
	assert.Equal(t, map[string]any{"count": float64(1)}, body.Meta)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantDetails bool
	}{
		{name: "not found", err: errorbank.NotFound("order not found", errorbank.WithDetail("id", 7)), wantStatus: http.StatusNotFound, wantKind: "not_found", wantDetails: true},
		{name: "bad request", err: errorbank.BadRequest("invalid order id"), wantStatus: http.StatusBadRequest, wantKind: "bad_request"},
		{name: "internal hides details", err: errorbank.Internal("failed", errorbank.WithDetail("sql", "secret")), wantStatus: http.StatusInternalServerError, wantKind: "internal"},
		{name: "plain error", err: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantKind: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := render(t, func(c echo.Context) error {
				return New(c).WithError(tt.err).Build()
			})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantKind, body.Error.Kind)
			assert.Equal(t, tt.wantDetails, body.Error.Details != nil)
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}

func TestErrorHandlerRouterFailures(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/orders", func(c echo.Context) error { return New(c).WithData([]int{}).Build() })

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantKind   string
	}{
		{name: "unknown route", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{name: "wrong method", method: http.MethodPatch, target: "/orders", wantStatus: http.StatusMethodNotAllowed, wantKind: "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			var body envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantKind, body.Error.Kind)
		})
	}
}

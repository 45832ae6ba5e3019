package calendarhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacations/internal/domain/auth"
	"vacations/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return true, nil
}

func get(t *testing.T, target string) (int, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(allowAll{}).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", RoleID: "r"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, _ := envelope["data"].(map[string]any)
	return rec.Code, data
}

func TestBusinessDays(t *testing.T) {
	tests := []struct {
		target string
		status int
		days   float64
	}{
		{"/calendar/business-days?start=2024-01-08&end=2024-01-19", http.StatusOK, 10},
		{"/calendar/business-days?start=2024-01-06&end=2024-01-06", http.StatusOK, 0},
		{"/calendar/business-days?start=2024-01-19&end=2024-01-08", http.StatusOK, 0},
		{"/calendar/business-days?start=2024-01-08", http.StatusBadRequest, 0},
		{"/calendar/business-days?start=nope&end=2024-01-08", http.StatusBadRequest, 0},
		{"/calendar/business-days?start=0001-01-01&end=9999-12-31", http.StatusBadRequest, 0},
		{"/calendar/business-days?start=9999-12-31&end=0001-01-01", http.StatusOK, 0},
		{"/calendar/business-days?start=2024-01-01&end=2033-12-31", http.StatusOK, 2610},
	}
	for _, tc := range tests {
		status, data := get(t, tc.target)
		assert.Equal(t, tc.status, status, tc.target)
		if tc.status == http.StatusOK {
			assert.Equal(t, tc.days, data["days"], tc.target)
		}
	}
}

func TestEndDate(t *testing.T) {
	status, data := get(t, "/calendar/end-date?start=2024-01-06&days=5")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-01-08", data["firstWorkday"])
	assert.Equal(t, "2024-01-12", data["end"])

	status, data = get(t, "/calendar/end-date?start=2024-02-26&days=5")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-03-01", data["end"])

	for _, target := range []string{
		"/calendar/end-date?start=2024-01-06&days=0",
		"/calendar/end-date?start=2024-01-06&days=-2",
		"/calendar/end-date?start=2024-01-06",
		"/calendar/end-date?days=3",
	} {
		status, _ := get(t, target)
		assert.Equal(t, http.StatusBadRequest, status, target)
	}
}

func TestEndDateDaysBounds(t *testing.T) {
	for _, tc := range []struct {
		days   string
		reason string
	}{
		{"0", "must be at least 1"},
		{"3661", "must be at most 3660"},
		{"two", "must be a whole number"},
	} {
		r := chi.NewRouter()
		NewHandler(allowAll{}).RegisterRoutes(r)
		req := httptest.NewRequest(http.MethodGet, "/calendar/end-date?start=2024-01-08&days="+tc.days, nil)
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", RoleID: "r"}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.days)
		assert.Contains(t, rec.Body.String(), tc.reason, tc.days)
	}
}

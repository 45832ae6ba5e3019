package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacations/internal/domain/audit"
	"vacations/internal/domain/auth"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
)

type rolePerms struct{}

func (rolePerms) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return auth.Can(roleID, permission), nil
}

type fakeAudit struct {
	filter  audit.Filter
	details bool
	limit   int
}

func (f *fakeAudit) Count(ctx context.Context, filter audit.Filter) (int, error) {
	return 42, nil
}

func (f *fakeAudit) List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	f.filter, f.details, f.limit = filter, includeDetails, limit
	return []audit.Event{{
		ID:         "a1",
		ActorID:    "hr",
		Action:     "vacation.request.approve",
		EntityType: "vacation_request",
		EntityID:   "r1",
		RequestID:  "req-1",
		IP:         "10.0.0.1",
		CreatedAt:  time.Date(2024, 1, 9, 8, 30, 0, 0, time.UTC),
	}}, nil
}

func serve(h *Handler, role, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", RoleID: role, RoleName: role}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListEvents(t *testing.T) {
	svc := &fakeAudit{}
	h := NewHandler(svc, rolePerms{})

	assert.Equal(t, http.StatusForbidden, serve(h, auth.RoleEmployee, "/audit/events").Code)

	rec := serve(h, auth.RoleHR, "/audit/events?action=vacation.request.approve&to=2024-01-31&includeDetails=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "vacation.request.approve", svc.filter.Action)
	assert.True(t, svc.details)
	require.NotNil(t, svc.filter.To)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *svc.filter.To)

	assert.Equal(t, http.StatusBadRequest, serve(h, auth.RoleHR, "/audit/events?from=2024-02-01&to=2024-01-01").Code)
}

func TestExportEvents(t *testing.T) {
	svc := &fakeAudit{}
	h := NewHandler(svc, rolePerms{})

	rec := serve(h, auth.RoleAdmin, "/audit/events/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.ContentTypeCSV, rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a1,hr,vacation.request.approve,vacation_request,r1,req-1,10.0.0.1,2024-01-09T08:30:00Z", lines[1])
	assert.Equal(t, maxExportRows, svc.limit)
}

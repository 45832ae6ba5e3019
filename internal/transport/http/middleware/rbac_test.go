package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacations/internal/domain/auth"
)

type rolePerms map[string][]string

func (p rolePerms) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	if roleID == "broken" {
		return false, errors.New("db down")
	}
	for _, perm := range p[roleID] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}

func TestRequirePermission(t *testing.T) {
	store := rolePerms{"emp": {auth.PermVacationRequest}}
	handler := RequirePermission(auth.PermVacationApprove, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"missing permission", &auth.UserContext{UserID: "u", RoleID: "emp"}, http.StatusForbidden},
		{"store failure", &auth.UserContext{UserID: "u", RoleID: "broken"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	store["sup"] = []string{auth.PermVacationApprove}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "s", RoleID: "sup"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type countingPerms struct {
	calls int
	err   error
}

func (p *countingPerms) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	return roleID == "hr", nil
}

func TestPermissionCache(t *testing.T) {
	store := &countingPerms{}
	cache := NewPermissionCache(store, time.Minute)
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for range 3 {
		allowed, err := cache.HasPermission(context.Background(), "hr", auth.PermVacationManage)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.Equal(t, 1, store.calls)

	allowed, err := cache.HasPermission(context.Background(), "emp", auth.PermVacationManage)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 2, store.calls)

	now = now.Add(2 * time.Minute)
	_, _ = cache.HasPermission(context.Background(), "hr", auth.PermVacationManage)
	assert.Equal(t, 3, store.calls)

	store.err = errors.New("db down")
	now = now.Add(2 * time.Minute)
	_, err = cache.HasPermission(context.Background(), "hr", auth.PermVacationManage)
	assert.Error(t, err)
	_, err = cache.HasPermission(context.Background(), "hr", auth.PermVacationManage)
	assert.Error(t, err)
	assert.Equal(t, 5, store.calls)
}

package notificationshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/notifications"
	"vacations/internal/transport/http/middleware"
)

type fakeInbox struct {
	unreadOnly bool
	readIDs    []string
}

func (f *fakeInbox) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]notifications.Notification, int, error) {
	f.unreadOnly = unreadOnly
	return []notifications.Notification{{ID: "n1", Title: "Request approved"}}, 4, nil
}

func (f *fakeInbox) UnreadCount(ctx context.Context, userID string) (int, error) {
	return 3, nil
}

func (f *fakeInbox) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "other" {
		return notifications.ErrNotFound
	}
	f.readIDs = append(f.readIDs, notificationID)
	return nil
}

func (f *fakeInbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return 2, nil
}

func serve(h *Handler, user *auth.UserContext, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	req := httptest.NewRequest(method, target, nil)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestInbox(t *testing.T) {
	inbox := &fakeInbox{}
	h := NewHandler(inbox)
	user := &auth.UserContext{UserID: "emp", RoleName: auth.RoleEmployee}

	assert.Equal(t, http.StatusUnauthorized, serve(h, nil, http.MethodGet, "/notifications").Code)

	rec := serve(h, user, http.MethodGet, "/notifications?unread=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, inbox.unreadOnly)
	assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))

	rec = serve(h, user, http.MethodGet, "/notifications/unread-count")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":3`)

	assert.Equal(t, http.StatusOK, serve(h, user, http.MethodPost, "/notifications/n1/read").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, user, http.MethodPost, "/notifications/other/read").Code)
	assert.Equal(t, []string{"n1"}, inbox.readIDs)

	rec = serve(h, user, http.MethodPost, "/notifications/read-all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":2`)
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"vacations/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission answers 401 for anonymous callers and 403 when the
// caller's role lacks permission.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
			switch {
			case err != nil:
				slog.Warn("permission lookup failed", "roleId", user.RoleID, "permission", permission, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
			case !allowed:
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

type permissionKey struct {
	roleID     string
	permission string
}

type permissionEntry struct {
	allowed bool
	expires time.Time
}

// PermissionCache memoizes role/permission answers for ttl. Lookup errors are
// never cached.
type PermissionCache struct {
	store PermissionStore
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[permissionKey]permissionEntry
}

func NewPermissionCache(store PermissionStore, ttl time.Duration) *PermissionCache {
	return &PermissionCache{store: store, ttl: ttl, now: time.Now, entries: map[permissionKey]permissionEntry{}}
}

func (c *PermissionCache) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	key := permissionKey{roleID: roleID, permission: permission}
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.allowed, nil
	}

	allowed, err := c.store.HasPermission(ctx, roleID, permission)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.entries[key] = permissionEntry{allowed: allowed, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return allowed, nil
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	audithandler "vacations/internal/transport/http/handlers/audit"
	authhandler "vacations/internal/transport/http/handlers/auth"
	calendarhandler "vacations/internal/transport/http/handlers/calendar"
	directoryhandler "vacations/internal/transport/http/handlers/directory"
	notificationshandler "vacations/internal/transport/http/handlers/notifications"
	reportshandler "vacations/internal/transport/http/handlers/reports"
	vacationhandler "vacations/internal/transport/http/handlers/vacation"
	"vacations/internal/transport/http/middleware"
)

func newRouter(app *App, svc services) http.Handler {
	cfg := app.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(app.Logger))
	router.Use(middleware.Metrics(app.Metrics))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, svc.auth))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(app.Metrics.Snapshot())
		})
	}

	perms := middleware.NewPermissionCache(svc.authStore, time.Minute)
	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(svc.auth, svc.mailer, svc.audit, cfg.EmailFrom, cfg.PublicURL).RegisterRoutes(r)
		vacationhandler.NewHandler(svc.vacation, perms, app.Jobs, svc.idempotency).RegisterRoutes(r)
		directoryhandler.NewHandler(svc.directory, perms, svc.audit).RegisterRoutes(r)
		calendarhandler.NewHandler(perms).RegisterRoutes(r)
		reportshandler.NewHandler(svc.reports, svc.vacation, perms).RegisterRoutes(r)
		notificationshandler.NewHandler(svc.notifications).RegisterRoutes(r)
		audithandler.NewHandler(svc.audit, perms).RegisterRoutes(r)
	})

	return router
}

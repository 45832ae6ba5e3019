package calendarhandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/calendar"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

const (
	// maxWorkingDays keeps end-date lookups bounded.
	maxWorkingDays = 3660
	// maxRangeDays bounds a business-day count, in calendar days.
	maxRangeDays = 3660
)

// Handler exposes the business-day calculator the request form uses.
type Handler struct {
	Perms middleware.PermissionStore
}

func NewHandler(perms middleware.PermissionStore) *Handler {
	return &Handler{Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermCalendarRead, h.Perms))
		r.Get("/business-days", h.handleBusinessDays)
		r.Get("/end-date", h.handleEndDate)
	})
}

func (h *Handler) handleBusinessDays(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	v.Required("start", r.URL.Query().Get("start"), "is required")
	v.Required("end", r.URL.Query().Get("end"), "is required")
	start := shared.QueryDate(r, v, "start")
	end := shared.QueryDate(r, v, "end")
	// an inverted range is valid and counts zero
	if start != nil && end != nil && !end.Before(*start) {
		v.DateRange("start", *start, "end", *end, maxRangeDays)
	}
	if v.Reject(w, requestID) {
		return
	}

	api.Success(w, map[string]any{
		"start": start.Format(shared.DateLayout),
		"end":   end.Format(shared.DateLayout),
		"days":  calendar.CountBusinessDays(*start, *end),
	}, requestID)
}

func (h *Handler) handleEndDate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	v.Required("start", r.URL.Query().Get("start"), "is required")
	start := shared.QueryDate(r, v, "start")
	days, _ := v.Int("days", r.URL.Query().Get("days"), 1, maxWorkingDays)
	if v.Reject(w, requestID) {
		return
	}

	end, err := calendar.AdvanceToEndDate(*start, days)
	if err != nil {
		slog.Warn("end date failed", "days", days, "err", err)
		api.Fail(w, http.StatusInternalServerError, "end_date_failed", "failed to compute end date", requestID)
		return
	}
	api.Success(w, map[string]any{
		"start":         start.Format(shared.DateLayout),
		"firstWorkday":  calendar.NextBusinessDay(*start).Format(shared.DateLayout),
		"end":           end.Format(shared.DateLayout),
		"requestedDays": days,
	}, requestID)
}

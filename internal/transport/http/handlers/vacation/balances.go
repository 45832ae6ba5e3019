package vacationhandler

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/calendar"
	"vacations/internal/domain/vacation"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

// maxCalendarDays bounds one calendar query.
const maxCalendarDays = 366

type adjustPayload struct {
	Amount float64 `json:"amount" validate:"required"`
	Reason string  `json:"reason" validate:"required,max=500"`
}

func (h *Handler) handleMyBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.writeBalance(w, r, user.UserID)
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	h.writeBalance(w, r, chi.URLParam(r, "employeeID"))
}

func (h *Handler) writeBalance(w http.ResponseWriter, r *http.Request, employeeID string) {
	user, _ := middleware.GetUser(r.Context())
	summary, err := h.Service.GetBalance(r.Context(), user, employeeID)
	if err != nil {
		writeError(w, r, err, "vacation_balance_failed", "failed to load balance")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rows, err := h.Service.ListBalances(r.Context(), user)
	if err != nil {
		writeError(w, r, err, "vacation_balances_failed", "failed to list balances")
		return
	}
	api.SetTotalCount(w, len(rows))
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload adjustPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	balance, err := h.Service.AdjustBalance(r.Context(), user, chi.URLParam(r, "employeeID"), payload.Amount, payload.Reason)
	if err != nil {
		writeError(w, r, err, "vacation_adjust_failed", "failed to adjust balance")
		return
	}
	api.Success(w, balance, requestID)
}

func (h *Handler) handleListDebts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	debts, err := h.Service.ListDebts(r.Context(), user)
	if err != nil {
		writeError(w, r, err, "vacation_debts_failed", "failed to list debts")
		return
	}
	api.SetTotalCount(w, len(debts))
	api.Success(w, debts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunAccruals(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.Jobs == nil {
		api.Fail(w, http.StatusServiceUnavailable, "jobs_unavailable", "job service not configured", requestID)
		return
	}
	summary, err := h.Jobs.RunAccrualNow(r.Context())
	if err != nil {
		writeError(w, r, err, "vacation_accrual_failed", "failed to run accruals")
		return
	}
	api.Success(w, summary, requestID)
}

// handleCalendar serves the team calendar as JSON, or as a CSV or iCalendar
// download when format is set. The range defaults to the current month.
func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	v := shared.NewValidator()
	from := shared.QueryDate(r, v, "from")
	to := shared.QueryDate(r, v, "to")
	statuses := splitStatuses(r.URL.Query().Get("status"))
	for _, status := range statuses {
		v.Enum("status", status, vacation.AllStatuses, "must be one of: "+strings.Join(vacation.AllStatuses, ", "))
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	v.Enum("format", format, []string{"json", "csv", "ics"}, "must be one of: json, csv, ics")

	today := calendar.Day(h.now())
	if from == nil {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		from = &first
	}
	if to == nil {
		last := from.AddDate(0, 1, -1)
		to = &last
	}
	v.DateRange("from", *from, "to", *to, maxCalendarDays)
	if v.Reject(w, requestID) {
		return
	}

	entries, err := h.Service.Calendar(r.Context(), user, *from, *to, statuses)
	if err != nil {
		writeError(w, r, err, "vacation_calendar_failed", "failed to load calendar")
		return
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := vacation.WriteCalendarCSV(&buf, entries); err != nil {
			writeError(w, r, err, "vacation_calendar_export_failed", "failed to export calendar")
			return
		}
		api.Download(w, api.ContentTypeCSV, "vacation-calendar.csv", buf.Bytes())
	case "ics":
		if err := vacation.WriteCalendarICS(&buf, entries, h.now()); err != nil {
			writeError(w, r, err, "vacation_calendar_export_failed", "failed to export calendar")
			return
		}
		api.Download(w, api.ContentTypeICS, "vacation-calendar.ics", buf.Bytes())
	default:
		api.SetTotalCount(w, len(entries))
		api.Success(w, entries, requestID)
	}
}

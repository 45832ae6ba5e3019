package reportshandler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/reports"
	"vacations/internal/domain/vacation"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

type Service interface {
	Dashboard(ctx context.Context, actor auth.UserContext, today time.Time) (reports.Dashboard, error)
	JobRuns(ctx context.Context, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
	JobRun(ctx context.Context, runID string) (reports.JobRun, error)
}

// BalanceLister supplies the rows of the balances export, scoped to the caller.
type BalanceLister interface {
	ListBalances(ctx context.Context, actor auth.UserContext) ([]vacation.EmployeeBalance, error)
}

type Handler struct {
	Service  Service
	Balances BalanceLister
	Perms    middleware.PermissionStore
	Now      func() time.Time
}

func NewHandler(service Service, balances BalanceLister, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Balances: balances, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermReportsRead, h.Perms)
	export := middleware.RequirePermission(auth.PermReportsExport, h.Perms)

	r.Route("/reports", func(r chi.Router) {
		r.With(read).Get("/dashboard", h.handleDashboard)
		r.With(export).Get("/balances/export", h.handleExportBalances)
		r.With(export).Get("/jobs", h.handleListJobRuns)
		r.With(export).Get("/jobs/{runID}", h.handleGetJobRun)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	dashboard, err := h.Service.Dashboard(r.Context(), user, h.Now())
	if err != nil {
		slog.Warn("dashboard failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

// handleExportBalances downloads the balances table as XLSX (default) or CSV.
func (h *Handler) handleExportBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "xlsx"
	}
	v := shared.NewValidator()
	v.Enum("format", format, []string{"xlsx", "csv"}, "must be xlsx or csv")
	if v.Reject(w, requestID) {
		return
	}

	rows, err := h.Balances.ListBalances(r.Context(), user)
	if err != nil {
		if errors.Is(err, vacation.ErrForbidden) {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this user", requestID)
			return
		}
		slog.Warn("balances export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "balances_export_failed", "failed to export balances", requestID)
		return
	}

	filename := "vacation-balances-" + h.Now().Format("20060102") + "." + format
	if format == "csv" {
		var buf bytes.Buffer
		if err := reports.WriteBalancesCSV(&buf, rows); err != nil {
			slog.Warn("balances csv failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "balances_export_failed", "failed to export balances", requestID)
			return
		}
		api.Download(w, api.ContentTypeCSV, filename, buf.Bytes())
		return
	}
	body, err := reports.BalancesWorkbook(rows)
	if err != nil {
		slog.Warn("balances workbook failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "balances_export_failed", "failed to export balances", requestID)
		return
	}
	api.Download(w, api.ContentTypeXLSX, filename, body)
}

func (h *Handler) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := reports.JobRunFilter{
		JobType:     strings.TrimSpace(r.URL.Query().Get("jobType")),
		Status:      strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		StartedFrom: shared.QueryDate(r, v, "from"),
		StartedTo:   shared.QueryDate(r, v, "to"),
	}
	v.Enum("status", filter.Status, []string{"running", "completed", "failed"}, "must be one of: running, completed, failed")
	if v.Reject(w, requestID) {
		return
	}
	if filter.StartedTo != nil {
		// inclusive of the whole "to" day
		end := filter.StartedTo.AddDate(0, 0, 1)
		filter.StartedTo = &end
	}

	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Warn("job runs list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", requestID)
		return
	}
	api.SetTotalCount(w, total)
	api.Success(w, runs, requestID)
}

func (h *Handler) handleGetJobRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	run, err := h.Service.JobRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job run not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "failed to load job run", requestID)
		return
	}
	api.Success(w, run, requestID)
}

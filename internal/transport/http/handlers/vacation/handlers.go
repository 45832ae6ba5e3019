package vacationhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/vacation"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

const maxQuoteDays = vacation.MaxQuoteDays

// Service is the vacation workflow as the handlers use it.
type Service interface {
	Quote(start time.Time, end *time.Time, days int) (vacation.Quote, error)
	CreateRequest(ctx context.Context, actor auth.UserContext, in vacation.CreateInput) (vacation.Request, error)
	ApproveRequest(ctx context.Context, actor auth.UserContext, requestID, comment string) (vacation.Request, error)
	RejectRequest(ctx context.Context, actor auth.UserContext, requestID, comment string) (vacation.Request, error)
	CancelRequest(ctx context.Context, actor auth.UserContext, requestID, comment string) (vacation.Request, error)
	ListRequests(ctx context.Context, actor auth.UserContext, filter vacation.RequestFilter, limit, offset int) ([]vacation.Request, int, error)
	PendingApprovals(ctx context.Context, actor auth.UserContext, limit, offset int) ([]vacation.Request, int, error)
	GetRequest(ctx context.Context, actor auth.UserContext, requestID string) (vacation.RequestDetail, error)
	ListTypes(ctx context.Context) ([]vacation.AbsenceType, error)
	CreateType(ctx context.Context, actor auth.UserContext, t vacation.AbsenceType) (vacation.AbsenceType, error)
	GetPolicy(ctx context.Context) (vacation.Policy, error)
	UpdatePolicy(ctx context.Context, actor auth.UserContext, p vacation.Policy) (vacation.Policy, error)
	GetBalance(ctx context.Context, actor auth.UserContext, employeeID string) (vacation.BalanceSummary, error)
	ListBalances(ctx context.Context, actor auth.UserContext) ([]vacation.EmployeeBalance, error)
	AdjustBalance(ctx context.Context, actor auth.UserContext, employeeID string, amount float64, reason string) (vacation.Balance, error)
	ListDebts(ctx context.Context, actor auth.UserContext) ([]vacation.Debt, error)
	Calendar(ctx context.Context, actor auth.UserContext, from, to time.Time, statuses []string) ([]vacation.CalendarEntry, error)
}

// AccrualRunner runs an accrual pass through the job service so the run is
// recorded like the scheduled ones.
type AccrualRunner interface {
	RunAccrualNow(ctx context.Context) (vacation.AccrualSummary, error)
}

type Handler struct {
	Service     Service
	Perms       middleware.PermissionStore
	Jobs        AccrualRunner
	Idempotency middleware.IdempotencyStore
	Now         func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore, jobs AccrualRunner, idem middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Perms: perms, Jobs: jobs, Idempotency: idem, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermVacationRead, h.Perms)
	request := middleware.RequirePermission(auth.PermVacationRequest, h.Perms)
	approve := middleware.RequirePermission(auth.PermVacationApprove, h.Perms)
	manage := middleware.RequirePermission(auth.PermVacationManage, h.Perms)
	once := middleware.Idempotent(h.Idempotency)

	r.Route("/vacation", func(r chi.Router) {
		r.With(read).Get("/types", h.handleListTypes)
		r.With(manage).Post("/types", h.handleCreateType)
		r.With(read).Get("/policy", h.handleGetPolicy)
		r.With(manage).Put("/policy", h.handleUpdatePolicy)
		r.With(read).Get("/quote", h.handleQuote)

		r.With(read).Get("/requests", h.handleListRequests)
		r.With(request, once).Post("/requests", h.handleCreateRequest)
		r.With(approve).Get("/requests/pending", h.handlePendingApprovals)
		r.With(read).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(read).Get("/requests/{requestID}/certificate", h.handleCertificate)
		r.With(approve, once).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(approve, once).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(request, once).Post("/requests/{requestID}/cancel", h.handleCancelRequest)

		r.With(read).Get("/balances/me", h.handleMyBalance)
		r.With(approve).Get("/balances", h.handleListBalances)
		r.With(read).Get("/balances/{employeeID}", h.handleGetBalance)
		r.With(manage).Post("/balances/{employeeID}/adjust", h.handleAdjustBalance)
		r.With(manage).Get("/debts", h.handleListDebts)
		r.With(manage).Post("/accruals/run", h.handleRunAccruals)

		r.With(middleware.RequirePermission(auth.PermCalendarRead, h.Perms)).Get("/calendar", h.handleCalendar)
	})
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// writeError maps workflow errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, vacation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, vacation.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this user", requestID)
	case errors.Is(err, vacation.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is not in a state that allows this action", requestID)
	case errors.Is(err, vacation.ErrOverlap):
		api.Fail(w, http.StatusConflict, "overlap", err.Error(), requestID)
	case errors.Is(err, vacation.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, vacation.ErrInvalidDates):
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "the range contains no business days", requestID)
	case errors.Is(err, vacation.ErrInvalidPolicy):
		api.Fail(w, http.StatusBadRequest, "invalid_policy", err.Error(), requestID)
	case errors.Is(err, vacation.ErrDuplicateType):
		api.Fail(w, http.StatusConflict, "duplicate_type", err.Error(), requestID)
	case errors.Is(err, vacation.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), requestID)
	default:
		slog.Warn("vacation request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

type typePayload struct {
	Name               string `json:"name" validate:"required,max=100"`
	Code               string `json:"code" validate:"required,max=20"`
	DeductsBalance     bool   `json:"deductsBalance"`
	RequiresHRApproval bool   `json:"requiresHrApproval"`
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		writeError(w, r, err, "vacation_types_failed", "failed to list absence types")
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload typePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	created, err := h.Service.CreateType(r.Context(), user, vacation.AbsenceType{
		Name:               payload.Name,
		Code:               payload.Code,
		DeductsBalance:     payload.DeductsBalance,
		RequiresHRApproval: payload.RequiresHRApproval,
	})
	if err != nil {
		writeError(w, r, err, "vacation_type_create_failed", "failed to create absence type")
		return
	}
	api.Created(w, created, requestID)
}

type policyPayload struct {
	AnnualDays          float64 `json:"annualDays" validate:"gte=0"`
	SeniorityAfterYears int     `json:"seniorityAfterYears" validate:"gte=0"`
	SeniorityBonusDays  float64 `json:"seniorityBonusDays" validate:"gte=0"`
	MaxAnnualDays       float64 `json:"maxAnnualDays" validate:"gte=0"`
	MaxBalance          float64 `json:"maxBalance" validate:"gte=0"`
	AllowDebt           bool    `json:"allowDebt"`
	AccrualPeriod       string  `json:"accrualPeriod" validate:"required,oneof=monthly yearly"`
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Service.GetPolicy(r.Context())
	if err != nil {
		writeError(w, r, err, "vacation_policy_failed", "failed to load policy")
		return
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload policyPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	updated, err := h.Service.UpdatePolicy(r.Context(), user, vacation.Policy{
		AnnualDays:          payload.AnnualDays,
		SeniorityAfterYears: payload.SeniorityAfterYears,
		SeniorityBonusDays:  payload.SeniorityBonusDays,
		MaxAnnualDays:       payload.MaxAnnualDays,
		MaxBalance:          payload.MaxBalance,
		AllowDebt:           payload.AllowDebt,
		AccrualPeriod:       payload.AccrualPeriod,
	})
	if err != nil {
		writeError(w, r, err, "vacation_policy_update_failed", "failed to update policy")
		return
	}
	api.Success(w, updated, requestID)
}

// handleQuote prices a range (start+end) or finds the end date for a number
// of business days (start+days), as the request form does while typing.
func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	start := shared.QueryDate(r, v, "start")
	end := shared.QueryDate(r, v, "end")
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, _ = v.Int("days", raw, 1, maxQuoteDays)
	}
	if start == nil && !v.HasIssues() {
		v.Add("start", "is required")
	}
	if end == nil && days == 0 && !v.HasIssues() {
		v.Add("end", "end or days is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	quote, err := h.Service.Quote(*start, end, days)
	if err != nil {
		writeError(w, r, err, "vacation_quote_failed", "failed to quote request")
		return
	}
	api.Success(w, quote, requestID)
}

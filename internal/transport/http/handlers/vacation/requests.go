package vacationhandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/reports"
	"vacations/internal/domain/vacation"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

type createRequestPayload struct {
	EmployeeID string `json:"employeeId"`
	TypeID     string `json:"typeId" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate"`
	Days       int    `json:"days" validate:"gte=0,lte=3660"`
	Reason     string `json:"reason" validate:"max=500"`
}

type decisionPayload struct {
	Comment string `json:"comment" validate:"max=500"`
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	v := shared.NewValidator()
	filter := vacation.RequestFilter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Statuses:   splitStatuses(r.URL.Query().Get("status")),
		From:       shared.QueryDate(r, v, "from"),
		To:         shared.QueryDate(r, v, "to"),
	}
	for _, status := range filter.Statuses {
		v.Enum("status", status, vacation.AllStatuses, "must be one of: "+strings.Join(vacation.AllStatuses, ", "))
	}
	if filter.From != nil && filter.To != nil {
		v.DateOrder("from", *filter.From, "to", *filter.To)
	}
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	items, total, err := h.Service.ListRequests(r.Context(), user, filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "vacation_requests_failed", "failed to list requests")
		return
	}
	api.SetTotalCount(w, total)
	api.Success(w, items, requestID)
}

func (h *Handler) handlePendingApprovals(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	items, total, err := h.Service.PendingApprovals(r.Context(), user, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "vacation_pending_failed", "failed to list pending approvals")
		return
	}
	api.SetTotalCount(w, total)
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload createRequestPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	start, _ := v.Date("startDate", payload.StartDate)
	in := vacation.CreateInput{
		EmployeeID: strings.TrimSpace(payload.EmployeeID),
		TypeID:     strings.TrimSpace(payload.TypeID),
		StartDate:  start,
		Days:       payload.Days,
		Reason:     strings.TrimSpace(payload.Reason),
	}
	if strings.TrimSpace(payload.EndDate) != "" {
		if end, ok := v.Date("endDate", payload.EndDate); ok {
			in.EndDate = &end
			v.DateOrder("startDate", start, "endDate", end)
		}
	} else if payload.Days == 0 {
		v.Add("endDate", "endDate or days is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.CreateRequest(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err, "vacation_request_create_failed", "failed to create request")
		return
	}
	api.Created(w, created, requestID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	detail, err := h.Service.GetRequest(r.Context(), user, chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, r, err, "vacation_request_failed", "failed to load request")
		return
	}
	api.Success(w, detail, middleware.GetRequestID(r.Context()))
}

// handleCertificate streams the PDF the employee downloads once a request has
// been approved.
func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	detail, err := h.Service.GetRequest(r.Context(), user, chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, r, err, "vacation_certificate_failed", "failed to load request")
		return
	}
	if detail.Request.Status != vacation.StatusApproved {
		writeError(w, r, vacation.ErrInvalidState, "", "")
		return
	}

	pdf, err := reports.RequestCertificate(detail.Request, detail.Approvals, h.now())
	if err != nil {
		writeError(w, r, err, "vacation_certificate_failed", "failed to render certificate")
		return
	}
	api.Download(w, api.ContentTypePDF, "vacation-"+detail.Request.ID+".pdf", pdf)
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.ApproveRequest, "vacation_approve_failed", "failed to approve request")
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.RejectRequest, "vacation_reject_failed", "failed to reject request")
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.CancelRequest, "vacation_cancel_failed", "failed to cancel request")
}

type decisionFunc func(ctx context.Context, actor auth.UserContext, requestID, comment string) (vacation.Request, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn decisionFunc, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload decisionPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	updated, err := fn(r.Context(), user, chi.URLParam(r, "requestID"), strings.TrimSpace(payload.Comment))
	if err != nil {
		writeError(w, r, err, code, message)
		return
	}
	api.Success(w, updated, requestID)
}

func splitStatuses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

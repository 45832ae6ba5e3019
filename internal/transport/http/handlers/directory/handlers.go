package directoryhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/directory"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

type Service interface {
	Me(ctx context.Context, actor auth.UserContext) (directory.User, error)
	GetUser(ctx context.Context, actor auth.UserContext, userID string) (directory.User, error)
	ListUsers(ctx context.Context, actor auth.UserContext, filter directory.UserFilter, limit, offset int) ([]directory.User, int, error)
	ListTeam(ctx context.Context, actor auth.UserContext, supervisorID string) ([]directory.User, error)
	CreateUser(ctx context.Context, in directory.UserInput) (directory.User, error)
	UpdateUser(ctx context.Context, userID string, in directory.UserInput) (directory.User, error)
	DeactivateUser(ctx context.Context, actor auth.UserContext, userID string) error
	ListDepartments(ctx context.Context) ([]directory.Department, error)
	CreateDepartment(ctx context.Context, dep directory.Department) (directory.Department, error)
	UpdateDepartment(ctx context.Context, departmentID string, dep directory.Department) (directory.Department, error)
	DeleteDepartment(ctx context.Context, departmentID string) error
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   Auditor
}

func NewHandler(service Service, perms middleware.PermissionStore, auditor Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)
	write := middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)

	r.Route("/directory", func(r chi.Router) {
		r.With(read).Get("/me", h.handleMe)
		r.With(read).Get("/team", h.handleTeam)
		r.With(read).Get("/users", h.handleListUsers)
		r.With(write).Post("/users", h.handleCreateUser)
		r.With(read).Get("/users/{userID}", h.handleGetUser)
		r.With(write).Put("/users/{userID}", h.handleUpdateUser)
		r.With(write).Post("/users/{userID}/deactivate", h.handleDeactivateUser)
		r.With(read).Get("/departments", h.handleListDepartments)
		r.With(write).Post("/departments", h.handleCreateDepartment)
		r.With(write).Put("/departments/{departmentID}", h.handleUpdateDepartment)
		r.With(write).Delete("/departments/{departmentID}", h.handleDeleteDepartment)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, directory.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this user", requestID)
	case errors.Is(err, directory.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", err.Error(), requestID)
	case errors.Is(err, directory.ErrDepartmentNotEmpty):
		api.Fail(w, http.StatusConflict, "department_not_empty", err.Error(), requestID)
	case errors.Is(err, directory.ErrInvalidRole),
		errors.Is(err, directory.ErrInvalidSupervisor),
		errors.Is(err, directory.ErrInvalidInput),
		errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), requestID)
	default:
		slog.Warn("directory request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID, before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

type userPayload struct {
	Email        string `json:"email" validate:"omitempty,email"`
	Password     string `json:"password" validate:"omitempty,min=8"`
	FirstName    string `json:"firstName" validate:"max=100"`
	LastName     string `json:"lastName" validate:"max=100"`
	Role         string `json:"role" validate:"omitempty,oneof=Employee Supervisor HR Admin"`
	DepartmentID string `json:"departmentId"`
	SupervisorID string `json:"supervisorId"`
	HireDate     string `json:"hireDate"`
}

// toInput parses the optional hire date, recording issues on v.
func (p userPayload) toInput(v *shared.Validator) directory.UserInput {
	in := directory.UserInput{
		Email:        p.Email,
		Password:     p.Password,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         p.Role,
		DepartmentID: p.DepartmentID,
		SupervisorID: p.SupervisorID,
	}
	if strings.TrimSpace(p.HireDate) != "" {
		if hire, ok := v.Date("hireDate", p.HireDate); ok {
			in.HireDate = &hire
		}
	}
	return in
}

// grantsAdmin blocks non-admins from minting admin accounts.
func grantsAdmin(actor auth.UserContext, role string) bool {
	return role == auth.RoleAdmin && actor.RoleName != auth.RoleAdmin
}

// Admin accounts are only edited by admins: an email swap alone is enough to
// take one over through the reset flow.
func guardsAdmin(actor auth.UserContext, target directory.User) bool {
	return target.Role == auth.RoleAdmin && actor.RoleName != auth.RoleAdmin
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	me, err := h.Service.Me(r.Context(), user)
	if err != nil {
		writeError(w, r, err, "directory_me_failed", "failed to load profile")
		return
	}
	api.Success(w, me, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	team, err := h.Service.ListTeam(r.Context(), user, strings.TrimSpace(r.URL.Query().Get("supervisorId")))
	if err != nil {
		writeError(w, r, err, "directory_team_failed", "failed to list team")
		return
	}
	api.SetTotalCount(w, len(team))
	api.Success(w, team, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	q := r.URL.Query()
	filter := directory.UserFilter{
		Query:        strings.TrimSpace(q.Get("q")),
		Role:         strings.TrimSpace(q.Get("role")),
		DepartmentID: strings.TrimSpace(q.Get("departmentId")),
		Status:       strings.ToLower(strings.TrimSpace(q.Get("status"))),
	}
	v := shared.NewValidator()
	v.Enum("role", filter.Role, auth.Roles, "must be one of: "+strings.Join(auth.Roles, ", "))
	v.Enum("status", filter.Status, []string{directory.StatusActive, directory.StatusInactive}, "must be active or inactive")
	if v.Reject(w, requestID) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	users, total, err := h.Service.ListUsers(r.Context(), user, filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "directory_users_failed", "failed to list users")
		return
	}
	api.SetTotalCount(w, total)
	api.Success(w, users, requestID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	found, err := h.Service.GetUser(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err, "directory_user_failed", "failed to load user")
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload userPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	in := payload.toInput(v)
	if v.Reject(w, requestID) {
		return
	}
	if grantsAdmin(user, in.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only admins can grant the Admin role", requestID)
		return
	}

	created, err := h.Service.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "directory_user_create_failed", "failed to create user")
		return
	}
	h.record(r, "directory.user.create", "user", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	var payload userPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	if payload.Password != "" {
		v.Add("password", "use the password reset flow")
	}
	in := payload.toInput(v)
	if v.Reject(w, requestID) {
		return
	}
	if grantsAdmin(user, in.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only admins can grant the Admin role", requestID)
		return
	}

	before, err := h.Service.GetUser(r.Context(), user, userID)
	if err != nil {
		writeError(w, r, err, "directory_user_update_failed", "failed to update user")
		return
	}
	if guardsAdmin(user, before) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only admins can modify Admin accounts", requestID)
		return
	}
	updated, err := h.Service.UpdateUser(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, "directory_user_update_failed", "failed to update user")
		return
	}
	h.record(r, "directory.user.update", "user", userID, before, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	target, err := h.Service.GetUser(r.Context(), user, userID)
	if err != nil {
		writeError(w, r, err, "directory_user_deactivate_failed", "failed to deactivate user")
		return
	}
	if guardsAdmin(user, target) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only admins can modify Admin accounts", requestID)
		return
	}
	if err := h.Service.DeactivateUser(r.Context(), user, userID); err != nil {
		writeError(w, r, err, "directory_user_deactivate_failed", "failed to deactivate user")
		return
	}
	h.record(r, "directory.user.deactivate", "user", userID, nil, map[string]string{"status": directory.StatusInactive})
	api.Success(w, map[string]string{"status": directory.StatusInactive}, requestID)
}

type departmentPayload struct {
	Name       string `json:"name" validate:"required,max=100"`
	HeadUserID string `json:"headUserId"`
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		writeError(w, r, err, "directory_departments_failed", "failed to list departments")
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload departmentPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	created, err := h.Service.CreateDepartment(r.Context(), directory.Department{Name: payload.Name, HeadUserID: strings.TrimSpace(payload.HeadUserID)})
	if err != nil {
		writeError(w, r, err, "directory_department_create_failed", "failed to create department")
		return
	}
	h.record(r, "directory.department.create", "department", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	departmentID := chi.URLParam(r, "departmentID")
	var payload departmentPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	updated, err := h.Service.UpdateDepartment(r.Context(), departmentID, directory.Department{Name: payload.Name, HeadUserID: strings.TrimSpace(payload.HeadUserID)})
	if err != nil {
		writeError(w, r, err, "directory_department_update_failed", "failed to update department")
		return
	}
	h.record(r, "directory.department.update", "department", departmentID, nil, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")
	if err := h.Service.DeleteDepartment(r.Context(), departmentID); err != nil {
		writeError(w, r, err, "directory_department_delete_failed", "failed to delete department")
		return
	}
	h.record(r, "directory.department.delete", "department", departmentID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

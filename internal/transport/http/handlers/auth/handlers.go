package authhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/transport/http/api"
	"vacations/internal/transport/http/middleware"
	"vacations/internal/transport/http/shared"
)

const defaultResetBaseURL = "http://localhost:8080"

// Service is the slice of auth.Service the handlers call.
type Service interface {
	Login(ctx context.Context, email, password, mfaCode string) (auth.LoginResult, error)
	Logout(ctx context.Context, user auth.UserContext) error
	Refresh(ctx context.Context, tokenString string) (string, error)
	RequestReset(ctx context.Context, email string) (string, string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	SetupMFA(ctx context.Context, user auth.UserContext, accountName string) (auth.MFASetup, error)
	SetMFA(ctx context.Context, user auth.UserContext, code string, enabled bool) error
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

type Handler struct {
	Service   Service
	Mailer    Mailer
	Audit     Auditor
	EmailFrom string
	BaseURL   string
}

func NewHandler(service Service, mailer Mailer, auditor Auditor, emailFrom, baseURL string) *Handler {
	return &Handler{Service: service, Mailer: mailer, Audit: auditor, EmailFrom: emailFrom, BaseURL: baseURL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/refresh", h.HandleRefresh)
		r.Post("/request-reset", h.HandleRequestReset)
		r.Post("/reset", h.HandleResetPassword)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/logout", h.HandleLogout)
			r.Post("/mfa/setup", h.HandleMFASetup)
			r.Post("/mfa/enable", h.HandleMFAEnable)
			r.Post("/mfa/disable", h.HandleMFADisable)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type mfaSetupRequest struct {
	AccountName string `json:"accountName"`
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), strings.TrimSpace(payload.Email), payload.Password, strings.TrimSpace(payload.MFACode))
	if err != nil {
		h.writeError(w, r, err, "login_failed", "failed to log in")
		return
	}
	h.record(r.Context(), result.User.UserID, "auth.login", "user", result.User.UserID)

	api.Success(w, map[string]any{
		"token": result.Token,
		"user":  map[string]string{"id": result.User.UserID, "roleId": result.User.RoleID, "role": result.User.RoleName},
	}, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Logout(r.Context(), user); err != nil {
		slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
	}
	h.record(r.Context(), user.UserID, "auth.logout", "user", user.UserID)
	api.Success(w, map[string]string{"status": "logged_out"}, requestID)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	token, err := h.Service.Refresh(r.Context(), parts[1])
	if err != nil {
		h.writeError(w, r, err, "token_error", "failed to rotate session")
		return
	}
	api.Success(w, map[string]any{"token": token}, requestID)
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload mfaSetupRequest
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	setup, err := h.Service.SetupMFA(r.Context(), user, strings.TrimSpace(payload.AccountName))
	if err != nil {
		h.writeError(w, r, err, "mfa_setup_failed", "failed to generate mfa secret")
		return
	}
	h.record(r.Context(), user.UserID, "auth.mfa.setup", "user", user.UserID)
	api.Success(w, setup, requestID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, false)
}

func (h *Handler) setMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	if err := h.Service.SetMFA(r.Context(), user, strings.TrimSpace(payload.Code), enabled); err != nil {
		h.writeError(w, r, err, "mfa_update_failed", "failed to update mfa")
		return
	}

	status, action := "disabled", "auth.mfa.disable"
	if enabled {
		status, action = "enabled", "auth.mfa.enable"
	}
	h.record(r.Context(), user.UserID, action, "user", user.UserID)
	api.Success(w, map[string]string{"status": status}, requestID)
}

// HandleRequestReset always answers the same way so callers cannot probe
// which emails have accounts.
func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload resetRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	email := strings.TrimSpace(payload.Email)

	userID, token, err := h.Service.RequestReset(r.Context(), email)
	if err != nil {
		slog.Warn("password reset request failed", "err", err)
	}
	if err == nil && token != "" {
		h.record(r.Context(), userID, "auth.reset.request", "user", userID)
		if h.Mailer != nil {
			link := buildResetLink(h.BaseURL, token)
			if err := h.Mailer.Send(r.Context(), h.EmailFrom, email, "Password reset", buildResetEmailMessage(link, auth.ResetTTL)); err != nil {
				slog.Warn("password reset email failed", "userId", userID, "err", err)
			}
		}
	}

	api.Success(w, map[string]string{"status": "reset_requested"}, requestID)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload resetPasswordRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if err := validateResetPassword(payload.NewPassword); err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "newPassword", Reason: err.Error()}})
		return
	}

	userID, err := h.Service.ResetPassword(r.Context(), strings.TrimSpace(payload.Token), payload.NewPassword)
	if err != nil {
		h.writeError(w, r, err, "update_failed", "failed to update password")
		return
	}
	h.record(r.Context(), userID, "auth.reset.complete", "user", userID)
	api.Success(w, map[string]string{"status": "password_reset"}, requestID)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
	case errors.Is(err, auth.ErrSessionExpired):
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestID)
	case errors.Is(err, auth.ErrMFAUnavailable):
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", requestID)
	case errors.Is(err, auth.ErrMFANotSetUp):
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
	case errors.Is(err, auth.ErrInvalidResetToken):
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired token", requestID)
	case errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "weak_password", err.Error(), requestID)
	default:
		slog.Warn("auth request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) record(ctx context.Context, userID, action, entityType, entityID string) {
	if h.Audit == nil || userID == "" {
		return
	}
	if err := h.Audit.Record(ctx, userID, action, entityType, entityID, nil, nil); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func validateResetPassword(password string) error {
	if len(password) < 8 {
		return errors.New("must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			upper = true
		case unicode.IsLower(ch):
			lower = true
		case unicode.IsDigit(ch):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return errors.New("must contain upper and lower case letters and a number")
	}
	return nil
}

func buildResetLink(baseURL, token string) string {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		base, _ = url.Parse(defaultResetBaseURL)
	}
	base.Path = path.Join("/", base.Path, "reset")
	base.RawQuery = url.Values{"token": {token}}.Encode()
	return base.String()
}

func buildResetEmailMessage(link string, ttl time.Duration) string {
	hours := int(ttl.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("A password reset was requested for your account.\n\nOpen %s to choose a new password. The link expires in %d hour(s).\n\nIf you did not ask for this, ignore this email.", link, hours)
}

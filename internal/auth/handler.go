package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/manish6022/hrone-sub000/internal/api"
	"github.com/manish6022/hrone-sub000/internal/audit"
	"github.com/manish6022/hrone-sub000/internal/platform/httpx"
	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/session"
	"github.com/manish6022/hrone-sub000/internal/shared"
)

// Handler wires the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	store     *session.Store
	csrf      *shared.CSRFManager
	eval      rbac.Evaluator
	recorder  *audit.Recorder
	validator *validator.Validate
	protect   api.Deps
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, store *session.Store, csrf *shared.CSRFManager, eval rbac.Evaluator, recorder *audit.Recorder, protect api.Deps) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		store:     store,
		csrf:      csrf,
		eval:      eval,
		recorder:  recorder,
		validator: validator.New(),
		protect:   protect,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(api.Protect(api.Options{
		RateLimit:      &api.RateLimitConfig{MaxRequests: 10, Window: time.Minute},
		RequiredFields: []string{"email", "password"},
	}, h.protect)).Post("/login", h.handleLogin)

	r.With(api.Protect(api.Options{
		RequireAuth: true,
		EnableCSRF:  true,
	}, h.protect)).Post("/logout", h.handleLogout)

	r.With(api.Protect(api.Options{RequireAuth: true}, h.protect)).Get("/me", h.handleMe)

	r.Get("/csrf", h.handleCSRF)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequestShape)
		return
	}
	if err := h.validator.Struct(creds); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	grant, err := h.service.Login(r.Context(), creds)
	if err != nil {
		h.record(r, audit.Event{
			Username: creds.Email,
			Action:   audit.ActionLoginFailure,
			Path:     r.URL.Path,
			IP:       r.RemoteAddr,
		})
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	redirectTo := h.store.Login(w, grant.Token, grant.Identity)
	h.record(r, audit.Event{
		ActorID:  grant.Identity.ID,
		Username: grant.Identity.Username,
		Action:   audit.ActionLoginSuccess,
		Path:     r.URL.Path,
		IP:       r.RemoteAddr,
	})

	httpx.Success(w, http.StatusOK, "login successful", map[string]any{
		"token":      grant.Token,
		"user":       grant.Identity,
		"role":       h.eval.UserRole(grant.Identity),
		"redirectTo": redirectTo,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if raw := shared.TokenFromContext(r.Context()); raw != "" {
		if err := h.service.Revoke(r.Context(), raw); err != nil {
			h.logger.Warn("revoke token", slog.Any("error", err))
		}
	}
	redirectTo := h.store.Logout(w)

	event := audit.Event{Action: audit.ActionLogout, Path: r.URL.Path, IP: r.RemoteAddr}
	if identity != nil {
		event.ActorID = identity.ID
		event.Username = identity.Username
	}
	h.record(r, event)

	httpx.Success(w, http.StatusOK, "logged out", map[string]any{"redirectTo": redirectTo})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, shared.ErrMissingCredential)
		return
	}
	httpx.Success(w, http.StatusOK, "", map[string]any{
		"user": identity,
		"role": h.eval.UserRole(identity),
	})
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token := h.csrf.Issue(w)
	httpx.Success(w, http.StatusOK, "", map[string]any{"csrfToken": token})
}

func (h *Handler) record(r *http.Request, event audit.Event) {
	if err := h.recorder.Record(r.Context(), event); err != nil && h.logger != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

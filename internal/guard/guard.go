// Package guard implements the edge policy engine. It runs before any
// handler, classifies the request path, and enforces token presence,
// validity, and role tier. Hardening headers and a correlation ID are
// attached to every response regardless of the decision.
package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/manish6022/hrone-sub000/internal/audit"
	"github.com/manish6022/hrone-sub000/internal/observability"
	"github.com/manish6022/hrone-sub000/internal/platform/httpx"
	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/session"
	"github.com/manish6022/hrone-sub000/internal/shared"
	"github.com/manish6022/hrone-sub000/internal/token"
)

// RequestIDHeader carries the per-request correlation identifier.
const RequestIDHeader = "X-Request-ID"

// AdminCapability is the capability that grants access to admin-only
// routes for non-superadmin identities.
const AdminCapability = "admin_access"

// Config declares the route classification data. The prefix lists are
// configuration, not logic, and may be supplied externally.
type Config struct {
	Public       []string
	Protected    []string
	AdminOnly    []string
	APIPrefix    string
	PublicAPI    []string
	LoginPath    string
	EmployeeHome string
}

// DefaultConfig returns the console's route map.
func DefaultConfig() Config {
	return Config{
		Public: []string{"/", "/login"},
		Protected: []string{
			"/dashboard", "/employees", "/attendance", "/leave",
			"/payroll", "/departments", "/users", "/settings",
			"/employee-dashboard",
		},
		AdminOnly:    []string{"/users", "/settings"},
		APIPrefix:    "/api",
		PublicAPI:    []string{"/api/auth/login", "/api/auth/csrf", "/api/health"},
		LoginPath:    "/login",
		EmployeeHome: "/employee-dashboard",
	}
}

// Guard is the per-request edge policy engine.
type Guard struct {
	cfg      Config
	codec    *token.Codec
	eval     rbac.Evaluator
	logger   *slog.Logger
	metrics  *observability.Metrics
	recorder *audit.Recorder
	secure   *secure.Secure
}

// New constructs a Guard. Metrics and recorder may be nil.
func New(cfg Config, codec *token.Codec, eval rbac.Evaluator, logger *slog.Logger, metrics *observability.Metrics, recorder *audit.Recorder) *Guard {
	return &Guard{
		cfg:      cfg,
		codec:    codec,
		eval:     eval,
		logger:   logger,
		metrics:  metrics,
		recorder: recorder,
		secure: secure.New(secure.Options{
			FrameDeny:          true,
			ContentTypeNosniff: true,
			ReferrerPolicy:     "strict-origin-when-cross-origin",
		}),
	}
}

// Middleware intercepts every inbound request before application logic.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.attachHeaders(w, r)
		path := r.URL.Path

		if g.isPublic(path) {
			next.ServeHTTP(w, r)
			return
		}

		if matchAnyPrefix(path, g.cfg.Protected) {
			g.servePage(w, r, next, path)
			return
		}

		if g.isProtectedAPI(path) {
			g.serveAPI(w, r, next)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// servePage enforces the browser-navigation rules: redirects instead of
// status codes, cookie cleanup on invalid tokens, and the under-privileged
// landing route for admin-only paths.
func (g *Guard) servePage(w http.ResponseWriter, r *http.Request, next http.Handler, path string) {
	raw := session.ReadToken(r)
	if raw == "" {
		g.metrics.CountDenial("missing_credential")
		http.Redirect(w, r, g.cfg.LoginPath, http.StatusSeeOther)
		return
	}
	claims, err := g.codec.Validate(raw)
	if err != nil {
		g.metrics.CountDenial("invalid_token")
		g.clearSessionCookies(w)
		http.Redirect(w, r, g.cfg.LoginPath, http.StatusSeeOther)
		return
	}

	if matchAnyPrefix(path, g.cfg.AdminOnly) {
		identity := g.resolveIdentity(r, claims)
		if !g.eval.IsSuperAdmin(identity) && !g.eval.HasCapability(identity, AdminCapability) {
			// Authenticated but under-privileged: restricted landing
			// route, not the login page.
			g.metrics.CountDenial("insufficient_privilege")
			if g.logger != nil {
				g.logger.Warn("admin route denied",
					slog.String("path", path),
					slog.String("user", identity.Username))
			}
			g.recordDenial(r, identity, path)
			http.Redirect(w, r, g.cfg.EmployeeHome, http.StatusSeeOther)
			return
		}
	}

	ctx := shared.ContextWithIdentity(r.Context(), g.resolveIdentity(r, claims))
	ctx = shared.ContextWithToken(ctx, raw)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// serveAPI enforces the API rules: structured 401 envelopes, never a
// redirect, because API clients need a status code rather than a page.
func (g *Guard) serveAPI(w http.ResponseWriter, r *http.Request, next http.Handler) {
	raw := session.ReadToken(r)
	if raw == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			raw = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if raw == "" {
		g.metrics.CountDenial("missing_credential")
		httpx.RespondError(w, shared.ErrMissingCredential)
		return
	}
	claims, err := g.codec.Validate(raw)
	if err != nil {
		g.metrics.CountDenial("invalid_token")
		httpx.RespondError(w, err)
		return
	}
	ctx := shared.ContextWithIdentity(r.Context(), g.resolveIdentity(r, claims))
	ctx = shared.ContextWithToken(ctx, raw)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// resolveIdentity prefers the cookie snapshot and falls back to the token
// claims. A corrupt snapshot is treated as "no user", never as a request
// failure.
func (g *Guard) resolveIdentity(r *http.Request, claims *token.Claims) *rbac.Identity {
	if identity, err := session.ReadIdentity(r); err == nil && identity != nil {
		return identity
	}
	return claims.Identity()
}

func (g *Guard) recordDenial(r *http.Request, identity *rbac.Identity, path string) {
	event := audit.Event{Action: audit.ActionAccessDenied, Path: path, IP: r.RemoteAddr}
	if identity != nil {
		event.ActorID = identity.ID
		event.Username = identity.Username
	}
	if err := g.recorder.Record(r.Context(), event); err != nil && g.logger != nil {
		g.logger.Warn("audit record", slog.Any("error", err))
	}
}

func (g *Guard) attachHeaders(w http.ResponseWriter, r *http.Request) {
	if err := g.secure.Process(w, r); err != nil && g.logger != nil {
		g.logger.Warn("secure headers", slog.Any("error", err))
	}
	w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
	w.Header().Set(RequestIDHeader, uuid.New().String())
}

func (g *Guard) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{session.TokenCookieName, session.UserCookieName} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

func (g *Guard) isPublic(path string) bool {
	for _, p := range g.cfg.Public {
		if p == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if matchPrefix(path, p) {
			return true
		}
	}
	return matchAnyPrefix(path, g.cfg.PublicAPI)
}

func (g *Guard) isProtectedAPI(path string) bool {
	if g.cfg.APIPrefix == "" || !matchPrefix(path, g.cfg.APIPrefix) {
		return false
	}
	return !matchAnyPrefix(path, g.cfg.PublicAPI)
}

func matchAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if matchPrefix(path, p) {
			return true
		}
	}
	return false
}

func matchPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

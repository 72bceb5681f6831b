// Package api provides the per-endpoint protection pipeline for API
// handlers: rate limiting, request-shape validation, the authentication
// guard, and the CSRF double-submit check, composed in that fixed order.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/manish6022/hrone-sub000/internal/platform/httpx"
	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/session"
	"github.com/manish6022/hrone-sub000/internal/shared"
	"github.com/manish6022/hrone-sub000/internal/token"
)

// Options selects which protections an endpoint receives. Every stage is
// independently skippable; zero-value Options passes requests through.
type Options struct {
	RequireAuth         bool
	RequireAdmin        bool
	RequiredPermissions []string
	EnableCSRF          bool
	RateLimit           *RateLimitConfig
	RequiredFields      []string
}

// Deps aggregates the collaborators the pipeline needs.
type Deps struct {
	Codec       *token.Codec
	Evaluator   rbac.Evaluator
	CSRF        *shared.CSRFManager
	Revocations *session.RevocationList
	Limiter     *RateLimiter
	Logger      *slog.Logger
}

// Protect composes the requested protections around a handler. Stages
// only intercept their own validation failures; errors from the wrapped
// handler are never swallowed here.
func Protect(opts Options, deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := next
		if opts.EnableCSRF {
			h = csrfStage(deps, h)
		}
		if opts.RequireAuth || opts.RequireAdmin || len(opts.RequiredPermissions) > 0 {
			h = authStage(opts, deps, h)
		}
		if len(opts.RequiredFields) > 0 {
			h = shapeStage(opts.RequiredFields, h)
		}
		if opts.RateLimit != nil {
			h = rateLimitStage(*opts.RateLimit, deps, h)
		}
		return h
	}
}

func rateLimitStage(cfg RateLimitConfig, deps Deps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rateKey(r)
		allowed, retryAfter := deps.Limiter.Allow(key, cfg)
		if !allowed {
			if deps.Logger != nil {
				deps.Logger.Warn("rate limit exceeded", slog.String("key", key))
			}
			retryAfterHeader(w, retryAfter)
			httpx.RespondError(w, shared.ErrRateLimited)
			return
		}
		if !cfg.SkipSuccessful {
			next.ServeHTTP(w, r)
			return
		}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		if recorder.status < http.StatusBadRequest {
			deps.Limiter.Refund(key)
		}
	})
}

// shapeStage verifies that the declared fields are present and non-empty
// in the parsed JSON body, then rewinds the body for the handler.
func shapeStage(fields []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidRequestShape)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			httpx.RespondError(w, shared.ErrInvalidRequestShape)
			return
		}
		var missing []string
		for _, f := range fields {
			if isEmptyField(parsed[f]) {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			httpx.Error(w, http.StatusBadRequest,
				fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authStage(opts Options, deps Deps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			raw = session.ReadToken(r)
		}
		if raw == "" {
			httpx.RespondError(w, shared.ErrMissingCredential)
			return
		}
		claims, err := deps.Codec.Validate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if deps.Revocations.IsRevoked(r.Context(), raw) {
			httpx.RespondError(w, shared.ErrExpiredToken)
			return
		}

		identity := claims.Identity()
		if snapshot, err := session.ReadIdentity(r); err == nil && snapshot != nil {
			identity = snapshot
		}
		if opts.RequireAdmin && !deps.Evaluator.IsSuperAdmin(identity) {
			httpx.RespondError(w, shared.ErrInsufficientPrivilege)
			return
		}
		if !deps.Evaluator.HasAllCapabilities(identity, opts.RequiredPermissions) {
			httpx.RespondError(w, shared.ErrInsufficientPrivilege)
			return
		}

		ctx := shared.ContextWithIdentity(r.Context(), identity)
		ctx = shared.ContextWithToken(ctx, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// csrfStage applies the double-submit check to state-changing methods.
func csrfStage(deps Deps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if err := deps.CSRF.Verify(r); err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("csrf validation failed", slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func isEmptyField(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	default:
		return false
	}
}

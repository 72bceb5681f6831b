package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/manish6022/hrone-sub000/internal/api"
	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/session"
	"github.com/manish6022/hrone-sub000/internal/shared"
	"github.com/manish6022/hrone-sub000/internal/token"
	_ "github.com/manish6022/hrone-sub000/testing"
)

func testDeps(t *testing.T) api.Deps {
	t.Helper()
	return api.Deps{
		Codec:       token.NewCodec(),
		Evaluator:   rbac.NewEvaluator(),
		CSRF:        shared.NewCSRFManager("test-csrf-secret", false),
		Revocations: session.NewRevocationList(nil),
		Limiter:     api.NewRateLimiter(),
	}
}

func mintToken(t *testing.T, identity *rbac.Identity, expiresAt time.Time) string {
	t.Helper()
	claims := &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)},
	}
	if identity != nil {
		claims.UserID = identity.ID
		claims.Username = identity.Username
		claims.Roles = identity.Roles
		claims.Privileges = identity.Privileges
		claims.IsSuperAdmin = identity.IsSuperAdmin
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return raw
}

func protectedHandler(opts api.Options, deps api.Deps, invoked *bool) http.Handler {
	return api.Protect(opts, deps)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*invoked = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestProtectZeroOptionsPassThrough(t *testing.T) {
	var invoked bool
	h := protectedHandler(api.Options{}, testDeps(t), &invoked)

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/anything", nil))
	if !invoked || res.Code != http.StatusOK {
		t.Fatalf("zero-value options must pass requests through, got %d", res.Code)
	}
}

func TestProtectRateLimitRunsFirst(t *testing.T) {
	deps := testDeps(t)
	var invoked bool
	h := protectedHandler(api.Options{
		RateLimit:      &api.RateLimitConfig{MaxRequests: 2, Window: time.Minute},
		RequiredFields: []string{"email"},
	}, deps, &invoked)

	for i := 0; i < 2; i++ {
		res := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
		req.RemoteAddr = "10.0.0.1:1000"
		h.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, res.Code)
		}
	}

	// Over the ceiling with a malformed body: the limiter answers before
	// shape validation ever sees the request.
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`not json`))
	req.RemoteAddr = "10.0.0.1:1000"
	h.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", res.Code)
	}
	if res.Header().Get("Retry-After") == "" {
		t.Fatalf("429 must carry Retry-After")
	}
}

func TestProtectShapeValidation(t *testing.T) {
	deps := testDeps(t)
	opts := api.Options{RequiredFields: []string{"email", "password"}}

	var invoked bool
	var handlerBody []byte
	h := api.Protect(opts, deps)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
		handlerBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c"}`)))
	if invoked {
		t.Fatalf("handler must not run with missing fields")
	}
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Success || !strings.Contains(envelope.Message, "password") {
		t.Fatalf("envelope must name the missing field: %+v", envelope)
	}

	// Whitespace-only values count as missing.
	res = httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"   "}`)))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("blank field: expected 400, got %d", res.Code)
	}

	// A complete body passes and is rewound for the handler.
	body := `{"email":"a@b.c","password":"hunter22"}`
	res = httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	if !invoked || res.Code != http.StatusOK {
		t.Fatalf("complete body must pass, got %d", res.Code)
	}
	if string(handlerBody) != body {
		t.Fatalf("body must be rewound for the handler, got %q", handlerBody)
	}
}

func TestProtectAuthRequired(t *testing.T) {
	deps := testDeps(t)
	var invoked bool
	h := protectedHandler(api.Options{RequireAuth: true}, deps, &invoked)

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if invoked || res.Code != http.StatusUnauthorized {
		t.Fatalf("missing credential: expected 401, got %d", res.Code)
	}

	identity := &rbac.Identity{ID: 7, Username: "jdoe", Roles: []rbac.RoleRef{{Name: "employee"}}}
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: mintToken(t, identity, time.Now().Add(-time.Hour))})
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if invoked || res.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: mintToken(t, identity, time.Now().Add(time.Hour))})
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if !invoked || res.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", res.Code)
	}
}

func TestProtectRequireAdmin(t *testing.T) {
	deps := testDeps(t)
	var invoked bool
	h := protectedHandler(api.Options{RequireAdmin: true}, deps, &invoked)

	employee := &rbac.Identity{ID: 7, Username: "jdoe", Roles: []rbac.RoleRef{{Name: "employee"}}}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, employee, time.Now().Add(time.Hour)))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if invoked || res.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", res.Code)
	}

	admin := &rbac.Identity{ID: 1, Username: "root", IsSuperAdmin: true}
	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, admin, time.Now().Add(time.Hour)))
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if !invoked || res.Code != http.StatusOK {
		t.Fatalf("superadmin: expected 200, got %d", res.Code)
	}
}

func TestProtectRequiredPermissions(t *testing.T) {
	deps := testDeps(t)
	var invoked bool
	h := protectedHandler(api.Options{RequiredPermissions: []string{"manage_leave"}}, deps, &invoked)

	hr := &rbac.Identity{
		ID:         3,
		Username:   "hrlead",
		Roles:      []rbac.RoleRef{{Name: "hr"}},
		Privileges: []rbac.PrivilegeRef{{Name: "manage_leave"}},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/leave/approve", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, hr, time.Now().Add(time.Hour)))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if !invoked || res.Code != http.StatusOK {
		t.Fatalf("granted permission: expected 200, got %d", res.Code)
	}

	invoked = false
	employee := &rbac.Identity{ID: 7, Username: "jdoe", Roles: []rbac.RoleRef{{Name: "employee"}}}
	req = httptest.NewRequest(http.MethodPost, "/api/leave/approve", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, employee, time.Now().Add(time.Hour)))
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if invoked || res.Code != http.StatusForbidden {
		t.Fatalf("missing permission: expected 403, got %d", res.Code)
	}
}

func TestProtectRevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	deps := testDeps(t)
	deps.Revocations = session.NewRevocationList(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	identity := &rbac.Identity{ID: 7, Username: "jdoe", Roles: []rbac.RoleRef{{Name: "employee"}}}
	raw := mintToken(t, identity, time.Now().Add(time.Hour))
	if err := deps.Revocations.Revoke(context.Background(), raw, time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	var invoked bool
	h := protectedHandler(api.Options{RequireAuth: true}, deps, &invoked)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if invoked || res.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", res.Code)
	}
}

func TestProtectCSRF(t *testing.T) {
	deps := testDeps(t)
	var invoked bool
	h := protectedHandler(api.Options{EnableCSRF: true}, deps, &invoked)

	// Safe methods skip the check.
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/things", nil))
	if !invoked {
		t.Fatalf("GET must skip the CSRF check")
	}

	// Missing pair.
	invoked = false
	res = httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/things", nil))
	if invoked || res.Code != http.StatusForbidden {
		t.Fatalf("missing CSRF pair: expected 403, got %d", res.Code)
	}

	// Mismatched pair.
	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.AddCookie(&http.Cookie{Name: shared.CSRFCookieName, Value: "cookie-token"})
	req.Header.Set(shared.CSRFHeaderName, "other-token")
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if invoked || res.Code != http.StatusForbidden {
		t.Fatalf("mismatched CSRF pair: expected 403, got %d", res.Code)
	}

	// Matching pair issued by the manager.
	issueRes := httptest.NewRecorder()
	csrfToken := deps.CSRF.Issue(issueRes)
	req = httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.AddCookie(&http.Cookie{Name: shared.CSRFCookieName, Value: csrfToken})
	req.Header.Set(shared.CSRFHeaderName, csrfToken)
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if !invoked || res.Code != http.StatusOK {
		t.Fatalf("matching CSRF pair: expected 200, got %d", res.Code)
	}
}

func TestProtectSkipSuccessfulRefund(t *testing.T) {
	deps := testDeps(t)
	var invoked int
	h := api.Protect(api.Options{
		RateLimit: &api.RateLimitConfig{MaxRequests: 1, Window: time.Minute, SkipSuccessful: true},
	}, deps)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked++
		w.WriteHeader(http.StatusOK)
	}))

	// Successful requests are refunded, so the ceiling never bites.
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
		req.RemoteAddr = "10.0.0.2:1000"
		h.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, res.Code)
		}
	}
	if invoked != 5 {
		t.Fatalf("expected 5 handler invocations, got %d", invoked)
	}
}

package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/manish6022/hrone-sub000/internal/shared"
)

func TestReadIdentityCorruptSnapshot(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookieName, Value: "!!not-base64!!"})
	if _, err := ReadIdentity(req); !errors.Is(err, shared.ErrCorruptedSession) {
		t.Fatalf("expected ErrCorruptedSession, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: UserCookieName, Value: encodeCookieValue([]byte("not json"))})
	if _, err := ReadIdentity(req); !errors.Is(err, shared.ErrCorruptedSession) {
		t.Fatalf("expected ErrCorruptedSession for bad JSON, got %v", err)
	}
}

func TestReadTokenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ReadToken(req); got != "" {
		t.Fatalf("absent cookie must read as empty, got %q", got)
	}
}

package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/shared"
)

// Cookie values are base64url-encoded because raw JSON is not a legal
// cookie value.

func encodeCookieValue(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCookieValue(value string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(value)
}

// ReadIdentity parses the identity snapshot cookie. Callers performing
// best-effort reads treat any error as "no user" rather than a failure.
func ReadIdentity(r *http.Request) (*rbac.Identity, error) {
	cookie, err := r.Cookie(UserCookieName)
	if err != nil || cookie.Value == "" {
		return nil, http.ErrNoCookie
	}
	raw, err := decodeCookieValue(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptedSession, err)
	}
	var identity rbac.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptedSession, err)
	}
	return &identity, nil
}

// ReadToken extracts the bearer token cookie, or "" when absent.
func ReadToken(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"time"
)

const (
	// CSRFCookieName is the cookie carrying the double-submit token.
	CSRFCookieName = "csrf_token"
	// CSRFHeaderName is the request header carrying the client copy.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFManager issues and verifies double-submit CSRF token pairs.
// Validity is strict equality between the header and cookie copies; no
// server-side state is kept beyond what the transport provides.
type CSRFManager struct {
	secret []byte
	secure bool
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string, secure bool) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), secure: secure}
}

// Issue generates a token and sets the cookie half of the pair.
func (m *CSRFManager) Issue(w http.ResponseWriter) string {
	token := m.generateToken()
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

// Verify compares the header-carried token against the cookie-carried one.
func (m *CSRFManager) Verify(r *http.Request) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFMismatch
	}
	header := r.Header.Get(CSRFHeaderName)
	if header == "" {
		return ErrCSRFMismatch
	}
	if !hmac.Equal([]byte(cookie.Value), []byte(header)) {
		return ErrCSRFMismatch
	}
	return nil
}

func (m *CSRFManager) generateToken() string {
	mac := hmac.New(sha256.New, m.secret)
	nonce := make([]byte, 16)
	_, _ = rand.Read(nonce)
	_, _ = mac.Write(nonce)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(time.Now().UnixNano()))
	_, _ = mac.Write(buf)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

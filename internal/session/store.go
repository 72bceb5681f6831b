// Package session owns the cookie-held session: bootstrap from persisted
// cookies, login/logout lifecycle, the redirect policy for authenticated
// versus unauthenticated navigation, and periodic liveness re-validation.
package session

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/manish6022/hrone-sub000/internal/rbac"
	"github.com/manish6022/hrone-sub000/internal/token"
)

const (
	// TokenCookieName carries the opaque bearer token.
	TokenCookieName = "token"
	// UserCookieName carries the JSON-serialized identity snapshot.
	UserCookieName = "user"
)

// State is the session lifecycle phase.
type State int

const (
	// StateUnauthenticated means no usable session exists.
	StateUnauthenticated State = iota
	// StateValidating means a persisted session is being re-checked.
	StateValidating
	// StateAuthenticated means a live token and identity are held.
	StateAuthenticated
)

// Session is the client-held state: the raw token, the identity snapshot,
// and when the token was last checked against its expiry.
type Session struct {
	Token           string
	Identity        *rbac.Identity
	LastValidatedAt time.Time
}

// Config tunes cookie persistence and redirect targets.
type Config struct {
	CookieTTL    time.Duration
	Secure       bool
	LoginPath    string
	AdminHome    string
	EmployeeHome string
}

// Store is the only owner of the session. It is safe for concurrent use;
// teardown is idempotent so a liveness expiry racing an explicit logout
// settles in the same unauthenticated state.
type Store struct {
	codec *token.Codec
	eval  rbac.Evaluator
	cfg   Config

	mu      sync.Mutex
	state   State
	current Session
}

// NewStore constructs a Store. Zero-value config fields fall back to the
// console's default routes and a thirty-day cookie lifetime.
func NewStore(codec *token.Codec, eval rbac.Evaluator, cfg Config) *Store {
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 30 * 24 * time.Hour
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.AdminHome == "" {
		cfg.AdminHome = "/dashboard"
	}
	if cfg.EmployeeHome == "" {
		cfg.EmployeeHome = "/employee-dashboard"
	}
	return &Store{codec: codec, eval: eval, cfg: cfg}
}

// State returns the current lifecycle phase.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns a copy of the held session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Bootstrap loads the persisted token and identity from the request
// cookies. An absent token leaves the store unauthenticated. An expired
// token or an unparseable identity snapshot purges both cookies and leaves
// the store unauthenticated; corruption is equivalent to logout, never a
// hard failure.
func (s *Store) Bootstrap(w http.ResponseWriter, r *http.Request) State {
	s.mu.Lock()
	s.state = StateValidating
	s.mu.Unlock()

	tokenCookie, err := r.Cookie(TokenCookieName)
	if err != nil || tokenCookie.Value == "" {
		s.Teardown(w)
		return StateUnauthenticated
	}
	if s.codec.IsExpired(tokenCookie.Value) {
		s.Teardown(w)
		return StateUnauthenticated
	}

	identity, err := ReadIdentity(r)
	if err != nil || identity == nil {
		s.Teardown(w)
		return StateUnauthenticated
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.current = Session{Token: tokenCookie.Value, Identity: identity, LastValidatedAt: time.Now()}
	s.mu.Unlock()
	return StateAuthenticated
}

// Login persists the freshly issued token and identity pair and returns
// the landing route: the restricted employee dashboard for RegularUser
// identities, the administrative dashboard otherwise.
func (s *Store) Login(w http.ResponseWriter, rawToken string, identity *rbac.Identity) string {
	s.writeCookies(w, rawToken, identity)
	s.mu.Lock()
	s.state = StateAuthenticated
	s.current = Session{Token: rawToken, Identity: identity, LastValidatedAt: time.Now()}
	s.mu.Unlock()
	return s.HomeFor(identity)
}

// Logout purges the persisted session unconditionally and returns the
// login entry point. Calling it on an already-empty session is a no-op.
func (s *Store) Logout(w http.ResponseWriter) string {
	s.Teardown(w)
	return s.cfg.LoginPath
}

// Teardown clears cookies and resets in-memory state. Idempotent.
func (s *Store) Teardown(w http.ResponseWriter) {
	if w != nil {
		clearCookie(w, TokenCookieName, s.cfg.Secure)
		clearCookie(w, UserCookieName, s.cfg.Secure)
	}
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.current = Session{}
	s.mu.Unlock()
}

// Expired re-runs the expiry check against the held token. An empty
// session counts as expired.
func (s *Store) Expired() bool {
	s.mu.Lock()
	raw := s.current.Token
	s.mu.Unlock()
	if raw == "" {
		return true
	}
	return s.codec.IsExpired(raw)
}

// HomeFor resolves the landing route for an identity.
func (s *Store) HomeFor(identity *rbac.Identity) string {
	if s.eval.IsRegularUser(identity) {
		return s.cfg.EmployeeHome
	}
	return s.cfg.AdminHome
}

// RouteRedirect applies the navigation rule: unauthenticated visitors may
// only see the login page, and authenticated users may not park on it.
// It returns the forced target and true, or "" and false to continue.
func (s *Store) RouteRedirect(path string) (string, bool) {
	s.mu.Lock()
	state := s.current
	authenticated := s.state == StateAuthenticated
	s.mu.Unlock()

	if !authenticated {
		if path != s.cfg.LoginPath {
			return s.cfg.LoginPath, true
		}
		return "", false
	}
	if path == s.cfg.LoginPath {
		return s.HomeFor(state.Identity), true
	}
	return "", false
}

// HasPermission evaluates a capability against the held identity.
func (s *Store) HasPermission(capability string) bool {
	return s.eval.HasCapability(s.Current().Identity, capability)
}

// IsSuperAdmin reports whether the held identity is SuperAdmin tier.
func (s *Store) IsSuperAdmin() bool { return s.eval.IsSuperAdmin(s.Current().Identity) }

// IsHR reports whether the held identity is HR tier.
func (s *Store) IsHR() bool { return s.eval.IsHR(s.Current().Identity) }

// IsManager reports whether the held identity is Manager tier.
func (s *Store) IsManager() bool { return s.eval.IsManager(s.Current().Identity) }

// IsRegularUser reports whether the held identity is RegularUser tier.
func (s *Store) IsRegularUser() bool { return s.eval.IsRegularUser(s.Current().Identity) }

// UserRole returns the coarse role string for the held identity.
func (s *Store) UserRole() string { return s.eval.UserRole(s.Current().Identity) }

func (s *Store) writeCookies(w http.ResponseWriter, rawToken string, identity *rbac.Identity) {
	expires := time.Now().Add(s.cfg.CookieTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    rawToken,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	snapshot, err := json.Marshal(identity)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     UserCookieName,
		Value:    encodeCookieValue(snapshot),
		Path:     "/",
		Expires:  expires,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}


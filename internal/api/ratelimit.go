package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig tunes the sliding fixed-window counter for an endpoint.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	// SkipSuccessful refunds requests that complete below 400, so only
	// failures count against the ceiling.
	SkipSuccessful bool
}

type rateRecord struct {
	count         int
	windowResetAt time.Time
}

// RateLimiter is a process-wide counter map keyed by (client IP, path).
// Eviction happens lazily on access rather than via a background sweep,
// so the map cannot grow without bound under normal traffic. Increment
// and evict run under one lock; concurrent requests cannot let traffic
// exceed the ceiling by more than an in-flight request.
type RateLimiter struct {
	mu      sync.Mutex
	records map[string]*rateRecord
	now     func() time.Time
}

// NewRateLimiter constructs an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{records: make(map[string]*rateRecord), now: time.Now}
}

// Allow counts one request for the key and reports whether it is within
// the ceiling, along with the seconds remaining until the window resets.
func (l *RateLimiter) Allow(key string, cfg RateLimitConfig) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, rec := range l.records {
		if now.After(rec.windowResetAt) {
			delete(l.records, k)
		}
	}

	rec, ok := l.records[key]
	if !ok {
		rec = &rateRecord{windowResetAt: now.Add(cfg.Window)}
		l.records[key] = rec
	}
	rec.count++
	retryAfter := int(rec.windowResetAt.Sub(now).Seconds()) + 1
	return rec.count <= cfg.MaxRequests, retryAfter
}

// Refund uncounts one request for the key, used by the successful-request
// exemption. Refunding an evicted window is a no-op; bookkeeping errors
// prefer over-counting to under-counting.
func (l *RateLimiter) Refund(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.records[key]; ok && rec.count > 0 {
		rec.count--
	}
}

// rateKey joins the client address and path into the limiter key.
func rateKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + "|" + r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func retryAfterHeader(w http.ResponseWriter, seconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}

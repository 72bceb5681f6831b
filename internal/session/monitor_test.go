package session

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/manish6022/hrone-sub000/internal/rbac"
)

func TestMonitorTearsDownExpiredSession(t *testing.T) {
	store := NewStore(testCodec(), rbac.NewEvaluator(), Config{})
	store.Login(httptest.NewRecorder(), mintToken(t, testClock.Add(-time.Minute)), &rbac.Identity{ID: 1})

	expired := make(chan struct{})
	monitor := NewMonitor(store, 5*time.Millisecond, func() { close(expired) })
	monitor.Start()
	defer monitor.Stop()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatalf("monitor did not detect expiry")
	}
	if store.State() != StateUnauthenticated {
		t.Fatalf("expected session torn down, got %v", store.State())
	}
}

func TestMonitorIgnoresLiveSession(t *testing.T) {
	store := NewStore(testCodec(), rbac.NewEvaluator(), Config{})
	store.Login(httptest.NewRecorder(), mintToken(t, testClock.Add(time.Hour)), &rbac.Identity{ID: 1})

	fired := make(chan struct{}, 1)
	monitor := NewMonitor(store, 5*time.Millisecond, func() { fired <- struct{}{} })
	monitor.Start()
	defer monitor.Stop()

	select {
	case <-fired:
		t.Fatalf("monitor must not fire for a live session")
	case <-time.After(50 * time.Millisecond):
	}
	if store.State() != StateAuthenticated {
		t.Fatalf("live session must survive the monitor, got %v", store.State())
	}
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	store := NewStore(testCodec(), rbac.NewEvaluator(), Config{})
	monitor := NewMonitor(store, time.Minute, nil)
	monitor.Start()
	monitor.Stop()
	monitor.Stop()
}

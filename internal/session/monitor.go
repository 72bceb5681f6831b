package session

import (
	"sync"
	"time"
)

// Monitor periodically re-validates the held token while the store is
// authenticated. It is a scheduled task tied to the session's lifetime:
// Stop tears it down deterministically, and stopping twice is safe.
type Monitor struct {
	store    *Store
	interval time.Duration
	onExpire func()

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewMonitor constructs a Monitor. The onExpire callback fires at most
// once, after the expired session has already been torn down.
func NewMonitor(store *Store, interval time.Duration, onExpire func()) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{
		store:    store,
		interval: interval,
		onExpire: onExpire,
		stopped:  make(chan struct{}),
	}
}

// Start launches the liveness loop. It returns immediately.
func (m *Monitor) Start() {
	go m.run()
}

// Stop cancels the liveness loop. Safe to call repeatedly and after the
// loop has already detected expiry.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopped) })
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopped:
			return
		case <-ticker.C:
			if m.store.State() != StateAuthenticated {
				continue
			}
			if !m.store.Expired() {
				continue
			}
			// Purging an already-empty session is a no-op, so racing an
			// explicit logout is harmless.
			m.store.Teardown(nil)
			if m.onExpire != nil {
				m.onExpire()
			}
			m.Stop()
			return
		}
	}
}

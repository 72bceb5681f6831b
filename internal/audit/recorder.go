// Package audit persists the security event trail: logins, logouts, and
// denied access decisions.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event actions recorded by the auth core.
const (
	ActionLoginSuccess = "auth.login.success"
	ActionLoginFailure = "auth.login.failure"
	ActionLogout       = "auth.logout"
	ActionAccessDenied = "auth.access.denied"
)

// Event is one row in auth_events.
type Event struct {
	ActorID  int64
	Username string
	Action   string
	Path     string
	IP       string
	Meta     map[string]any
	At       time.Time
}

// Execer is the slice of pgxpool.Pool the recorder needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder writes events into auth_events. A nil Recorder discards
// events, so audit persistence is optional in tests.
type Recorder struct {
	db Execer
}

// NewRecorder returns a Recorder backed by the given pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	if pool == nil {
		return nil
	}
	return &Recorder{db: pool}
}

// NewRecorderWithExecer returns a Recorder over an arbitrary Execer.
func NewRecorderWithExecer(db Execer) *Recorder {
	return &Recorder{db: db}
}

// Record persists the event. Audit failures are reported to the caller
// but must never block the request that produced them.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if r == nil || r.db == nil {
		return nil
	}
	if event.Action == "" {
		return errors.New("audit: event requires an action")
	}
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO auth_events (actor_id, username, action, path, ip, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ActorID, event.Username, event.Action, event.Path, event.IP, metaJSON, event.At)
	return err
}

// PurgeOlderThan deletes events past the retention horizon and returns
// the number of rows removed.
func (r *Recorder) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if r == nil || r.db == nil {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM auth_events WHERE occurred_at < NOW() - make_interval(secs => $1)`,
		age.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

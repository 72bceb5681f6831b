package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/manish6022/hrone-sub000/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention is the task type purging aged auth events.
	TaskAuditRetention = "audit:retention"
)

// AuditRetentionPayload declares the retention horizon for a sweep.
type AuditRetentionPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditRetentionTask constructs an Asynq task.
func NewAuditRetentionTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditRetentionPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// AuditRetentionJob deletes auth events older than the configured horizon.
type AuditRetentionJob struct {
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewAuditRetentionJob constructs the job.
func NewAuditRetentionJob(recorder *audit.Recorder, logger *slog.Logger) *AuditRetentionJob {
	return &AuditRetentionJob{recorder: recorder, logger: logger}
}

// Handle processes TaskAuditRetention tasks.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuditRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		return asynq.SkipRetry
	}
	age := time.Duration(payload.RetentionDays) * 24 * time.Hour
	removed, err := j.recorder.PurgeOlderThan(ctx, age)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("audit retention sweep",
			slog.Int("retention_days", payload.RetentionDays),
			slog.Int64("removed", removed))
	}
	return nil
}

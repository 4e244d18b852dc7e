package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatabaseBackup triggers the nightly database export.
	TaskDatabaseBackup = "backup:database"
	// TaskReportsWarmup pre-populates the report caches.
	TaskReportsWarmup = "reports:warmup"
)

// DatabaseBackupPayload carries scheduling metadata for a backup run.
type DatabaseBackupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDatabaseBackupTask constructs an Asynq task for a database export.
func NewDatabaseBackupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DatabaseBackupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatabaseBackup, body, asynq.Queue(QueueDefault)), nil
}

// ReportsWarmupPayload carries scheduling metadata for a warmup run.
type ReportsWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReportsWarmupTask constructs an Asynq task for report cache warmup.
func NewReportsWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReportsWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, body, asynq.Queue(QueueDefault)), nil
}

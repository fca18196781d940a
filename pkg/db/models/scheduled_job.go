package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

// ScheduledJob is the zero-or-one pending publication record per draft.
//
// The (Status, NextRetryAt, Attempts) triple carries the retry semantics:
//   - scheduled + due ScheduleAt: never attempted
//   - failed + future NextRetryAt: pending backoff
//   - failed + nil NextRetryAt + Attempts < max: orphaned, recovery sweep target
//   - failed + nil NextRetryAt + Attempts >= max: dead-lettered
//
// Attempts increases monotonically and is never reset within a job's life;
// only a Schedule action replacing the job starts the counter over.
type ScheduledJob struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DraftID     uuid.UUID                `gorm:"column:draft_id;type:uuid;not null;uniqueIndex:ux_scheduled_jobs_draft_id"`
	ScheduleAt  time.Time                `gorm:"column:schedule_at;not null"`
	Status      enums.ScheduledJobStatus `gorm:"column:status;not null;default:'scheduled'"`
	Attempts    int                      `gorm:"column:attempts;not null;default:0"`
	LastError   *string                  `gorm:"column:last_error"`
	NextRetryAt *time.Time               `gorm:"column:next_retry_at"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// DeadLettered reports whether the job exhausted its retry budget.
func (j *ScheduledJob) DeadLettered(maxAttempts int) bool {
	return j.Status == enums.JobStatusFailed && j.NextRetryAt == nil && j.Attempts >= maxAttempts
}

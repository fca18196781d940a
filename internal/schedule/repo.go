package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for scheduled publication jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, draftID uuid.UUID, scheduleAt time.Time) (*models.ScheduledJob, error)
	GetByDraft(ctx context.Context, draftID uuid.UUID) (*models.ScheduledJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledJob, error)
	Cancel(ctx context.Context, draftID uuid.UUID) (int64, error)
	CancelByID(ctx context.Context, id uuid.UUID) error
	MarkPublishedByID(ctx context.Context, id uuid.UUID) error
	MarkPublishedByDraft(ctx context.Context, draftID uuid.UUID) (int64, error)
	MarkFailure(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextRetryAt *time.Time) error
	RetryNow(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledJob, error)
	RecoverOrphans(ctx context.Context, now time.Time, staleBefore time.Time, maxAttempts int) (int64, error)
	ListDeadLettered(ctx context.Context, maxAttempts int, params pagination.Params) (*JobList, error)
	CountDeadLettered(ctx context.Context, maxAttempts int) (int64, error)
}

// JobList is a cursor page of scheduled jobs.
type JobList struct {
	Jobs       []models.ScheduledJob
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a scheduled job repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert creates or replaces the draft's single job. Replacing resets status,
// attempts and error bookkeeping; the old attempt history lives on in the
// failure ledger, not here.
func (r *repository) Upsert(ctx context.Context, draftID uuid.UUID, scheduleAt time.Time) (*models.ScheduledJob, error) {
	job := models.ScheduledJob{
		ID:         uuid.New(),
		DraftID:    draftID,
		ScheduleAt: scheduleAt.UTC(),
		Status:     enums.JobStatusScheduled,
		Attempts:   0,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "draft_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"schedule_at":   job.ScheduleAt,
				"status":        enums.JobStatusScheduled,
				"attempts":      0,
				"last_error":    nil,
				"next_retry_at": nil,
				"updated_at":    time.Now().UTC(),
			}),
		}).
		Create(&job).Error
	if err != nil {
		return nil, err
	}

	return r.GetByDraft(ctx, draftID)
}

func (r *repository) GetByDraft(ctx context.Context, draftID uuid.UUID) (*models.ScheduledJob, error) {
	var job models.ScheduledJob
	err := r.db.WithContext(ctx).
		Where("draft_id = ?", draftID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledJob, error) {
	var job models.ScheduledJob
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Cancel terminates the draft's pending job if one exists. Published and
// already-cancelled jobs are left alone.
func (r *repository) Cancel(ctx context.Context, draftID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("draft_id = ? AND status IN ?", draftID, []enums.ScheduledJobStatus{enums.JobStatusScheduled, enums.JobStatusFailed}).
		Updates(map[string]any{
			"status":        enums.JobStatusCancelled,
			"next_retry_at": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) CancelByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.JobStatusCancelled,
			"next_retry_at": nil,
		}).Error
}

func (r *repository) MarkPublishedByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.JobStatusPublished,
			"next_retry_at": nil,
		}).Error
}

// MarkPublishedByDraft closes the draft's pending job after a manual publish
// beat the scheduler to it.
func (r *repository) MarkPublishedByDraft(ctx context.Context, draftID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("draft_id = ? AND status IN ?", draftID, []enums.ScheduledJobStatus{enums.JobStatusScheduled, enums.JobStatusFailed}).
		Updates(map[string]any{
			"status":        enums.JobStatusPublished,
			"next_retry_at": nil,
		})
	return res.RowsAffected, res.Error
}

// MarkFailure records an attempt outcome. A nil nextRetryAt dead-letters the
// job once attempts has reached the configured ceiling.
func (r *repository) MarkFailure(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextRetryAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.JobStatusFailed,
			"attempts":      attempts,
			"last_error":    lastError,
			"next_retry_at": nextRetryAt,
		}).Error
}

// RetryNow makes a failed job immediately claimable. Attempts are deliberately
// left untouched, so a dead-lettered job gets exactly one more try.
func (r *repository) RetryNow(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ? AND status = ?", id, enums.JobStatusFailed).
		Update("next_retry_at", at.UTC())
	return res.RowsAffected, res.Error
}

// ClaimDue locks up to limit due jobs, skipping rows another worker already
// holds. Must run inside a transaction; the row locks are what give the
// scheduler its at-most-once guarantee across replicas.
func (r *repository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledJob, error) {
	var jobs []models.ScheduledJob
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("(status = ? AND schedule_at <= ?) OR (status = ? AND next_retry_at <= ?)",
			enums.JobStatusScheduled, now, enums.JobStatusFailed, now).
		Order("COALESCE(next_retry_at, schedule_at) ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// RecoverOrphans re-arms failed jobs stranded without a retry time, typically
// by a crash between marking the failure and scheduling the retry. Jobs at or
// past the attempt ceiling stay dead-lettered.
func (r *repository) RecoverOrphans(ctx context.Context, now time.Time, staleBefore time.Time, maxAttempts int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("status = ? AND next_retry_at IS NULL AND attempts < ? AND updated_at < ?",
			enums.JobStatusFailed, maxAttempts, staleBefore).
		Update("next_retry_at", now.UTC())
	return res.RowsAffected, res.Error
}

func (r *repository) ListDeadLettered(ctx context.Context, maxAttempts int, params pagination.Params) (*JobList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("status = ? AND next_retry_at IS NULL AND attempts >= ?", enums.JobStatusFailed, maxAttempts)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ScheduledJob
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &JobList{Jobs: rows}
	if len(rows) > limit {
		list.Jobs = rows[:limit]
		last := list.Jobs[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) CountDeadLettered(ctx context.Context, maxAttempts int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("status = ? AND next_retry_at IS NULL AND attempts >= ?", enums.JobStatusFailed, maxAttempts).
		Count(&count).Error
	return count, err
}

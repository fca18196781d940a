package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

type stubJobsRepo struct {
	jobs       map[uuid.UUID]*models.ScheduledJob
	retryCalls []uuid.UUID
}

func (s *stubJobsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubJobsRepo) Upsert(ctx context.Context, draftID uuid.UUID, scheduleAt time.Time) (*models.ScheduledJob, error) {
	return nil, nil
}

func (s *stubJobsRepo) GetByDraft(ctx context.Context, draftID uuid.UUID) (*models.ScheduledJob, error) {
	for _, job := range s.jobs {
		if job.DraftID == draftID {
			return job, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubJobsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledJob, error) {
	if job, ok := s.jobs[id]; ok {
		return job, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubJobsRepo) Cancel(ctx context.Context, draftID uuid.UUID) (int64, error) { return 0, nil }

func (s *stubJobsRepo) CancelByID(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubJobsRepo) MarkPublishedByID(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubJobsRepo) MarkPublishedByDraft(ctx context.Context, draftID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubJobsRepo) MarkFailure(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextRetryAt *time.Time) error {
	return nil
}

func (s *stubJobsRepo) RetryNow(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	s.retryCalls = append(s.retryCalls, id)
	job, ok := s.jobs[id]
	if !ok || job.Status != enums.JobStatusFailed {
		return 0, nil
	}
	retryAt := at
	job.NextRetryAt = &retryAt
	return 1, nil
}

func (s *stubJobsRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledJob, error) {
	return nil, nil
}

func (s *stubJobsRepo) RecoverOrphans(ctx context.Context, now time.Time, staleBefore time.Time, maxAttempts int) (int64, error) {
	return 0, nil
}

func (s *stubJobsRepo) ListDeadLettered(ctx context.Context, maxAttempts int, params pagination.Params) (*JobList, error) {
	return &JobList{}, nil
}

func (s *stubJobsRepo) CountDeadLettered(ctx context.Context, maxAttempts int) (int64, error) {
	return 0, nil
}

func TestServiceRetryRevivesFailedJobWithoutResettingAttempts(t *testing.T) {
	jobID := uuid.New()
	repo := &stubJobsRepo{jobs: map[uuid.UUID]*models.ScheduledJob{
		jobID: {ID: jobID, DraftID: uuid.New(), Status: enums.JobStatusFailed, Attempts: 5},
	}}
	svc := NewService(repo, 5)

	job, err := svc.Retry(context.Background(), jobID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if job.Attempts != 5 {
		t.Fatalf("attempts must not reset, got %d", job.Attempts)
	}
	if job.NextRetryAt == nil {
		t.Fatal("expected next retry time set")
	}
}

func TestServiceRetryRejectsNonFailedJob(t *testing.T) {
	jobID := uuid.New()
	repo := &stubJobsRepo{jobs: map[uuid.UUID]*models.ScheduledJob{
		jobID: {ID: jobID, DraftID: uuid.New(), Status: enums.JobStatusPublished},
	}}
	svc := NewService(repo, 5)

	_, err := svc.Retry(context.Background(), jobID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestServiceRetryUnknownJob(t *testing.T) {
	svc := NewService(&stubJobsRepo{jobs: map[uuid.UUID]*models.ScheduledJob{}}, 5)

	_, err := svc.Retry(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceGetByDraftNotFound(t *testing.T) {
	svc := NewService(&stubJobsRepo{jobs: map[uuid.UUID]*models.ScheduledJob{}}, 5)

	_, err := svc.GetByDraft(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

// Service is the operator-facing surface over scheduled jobs: inspecting a
// draft's job, listing the dead-letter queue, and reviving failed jobs.
type Service interface {
	GetByDraft(ctx context.Context, draftID uuid.UUID) (*models.ScheduledJob, error)
	ListDeadLettered(ctx context.Context, params pagination.Params) (*JobList, error)
	Retry(ctx context.Context, jobID uuid.UUID) (*models.ScheduledJob, error)
}

type service struct {
	repo        Repository
	maxAttempts int
	now         func() time.Time
}

// NewService builds the scheduled job operator service.
func NewService(repo Repository, maxAttempts int) Service {
	return &service{repo: repo, maxAttempts: maxAttempts, now: time.Now}
}

func (s *service) GetByDraft(ctx context.Context, draftID uuid.UUID) (*models.ScheduledJob, error) {
	job, err := s.repo.GetByDraft(ctx, draftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no scheduled job for draft")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled job")
	}
	return job, nil
}

func (s *service) ListDeadLettered(ctx context.Context, params pagination.Params) (*JobList, error) {
	list, err := s.repo.ListDeadLettered(ctx, s.maxAttempts, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead-lettered jobs")
	}
	return list, nil
}

// Retry makes a failed job claimable on the next tick. Attempts are never
// reset here: a job at the ceiling gets one more try and, if that fails,
// returns straight to the dead-letter queue.
func (s *service) Retry(ctx context.Context, jobID uuid.UUID) (*models.ScheduledJob, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheduled job not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled job")
	}

	affected, err := s.repo.RetryNow(ctx, jobID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retry scheduled job")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job is not in a failed state").
			WithDetails(map[string]any{"status": job.Status})
	}

	return s.repo.GetByID(ctx, jobID)
}

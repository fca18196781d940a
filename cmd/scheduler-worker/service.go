package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/pkg/config"
	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/metrics"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 10
	defaultMaxAttempts  = 5
	defaultRetryBackoff = time.Minute
	defaultRecoverAfter = 10 * time.Minute
	maxLoopBackoff      = time.Minute
	jitterWindow        = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type publisher interface {
	PublishClaimed(ctx context.Context, tx *gorm.DB, job models.ScheduledJob) (bool, error)
}

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      dbClient
	Jobs    schedule.Repository
	Engine  publisher
	Ledger  failures.Ledger
	Metrics *metrics.SchedulerMetrics
}

// Service is the publication scheduler loop. Each tick recovers orphaned
// jobs, claims a batch of due ones and drives them through the engine's
// publish path, translating failures into backoff or dead-letter bookkeeping.
type Service struct {
	cfg     *config.Config
	logg    *logger.Logger
	db      dbClient
	jobs    schedule.Repository
	engine  publisher
	ledger  failures.Ledger
	metrics *metrics.SchedulerMetrics

	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	retryBackoff time.Duration
	recoverAfter time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Jobs == nil {
		return nil, errors.New("job repository is required")
	}
	if params.Engine == nil {
		return nil, errors.New("lifecycle engine is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("failure ledger is required")
	}

	sched := params.Config.Scheduler
	pollInterval := sched.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	batchSize := sched.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxAttempts := sched.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryBackoff := sched.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	recoverAfter := sched.RecoverFailedAfter
	if recoverAfter <= 0 {
		recoverAfter = defaultRecoverAfter
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		jobs:         params.Jobs,
		engine:       params.Engine,
		ledger:       params.Ledger,
		metrics:      params.Metrics,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
		recoverAfter: recoverAfter,
		now:          time.Now,
	}, nil
}

// Run ticks until the context is cancelled. A tick-level error never stops
// the loop; it only widens the sleep before the next attempt.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	backoff := s.pollInterval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "publication scheduler context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.tick(ctx)
		if err != nil {
			s.logg.Error(ctx, "publication scheduler tick error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxLoopBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// tick runs one scheduler pass. The claim and every per-job outcome share a
// transaction so the claimed rows stay locked until the bookkeeping commits.
func (s *Service) tick(ctx context.Context) (bool, error) {
	s.metrics.IncTick()
	now := s.now().UTC()

	recovered, err := s.jobs.RecoverOrphans(ctx, now, now.Add(-s.recoverAfter), s.maxAttempts)
	if err != nil {
		return false, fmt.Errorf("recovery sweep: %w", err)
	}
	if recovered > 0 {
		s.logg.Info(s.logg.WithField(ctx, "recovered", recovered), "re-armed orphaned jobs")
	}

	processed := false
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		jobs, err := s.jobs.WithTx(tx).ClaimDue(ctx, now, s.batchSize)
		if err != nil {
			return fmt.Errorf("claim due jobs: %w", err)
		}
		if len(jobs) == 0 {
			return nil
		}

		processed = true
		for _, job := range jobs {
			jobCtx := s.logg.WithJobID(s.logg.WithDraftID(ctx, job.DraftID.String()), job.ID.String())

			started := s.now()
			published, err := s.engine.PublishClaimed(jobCtx, tx, job)
			if err != nil {
				if markErr := s.handleFailure(jobCtx, tx, job, err); markErr != nil {
					return markErr
				}
				continue
			}
			if !published {
				s.logg.Info(jobCtx, "job cancelled, draft left scheduled state")
				continue
			}

			s.metrics.IncPublished()
			s.metrics.ObservePublishDuration(s.now().Sub(started))
			s.logg.Info(jobCtx, "scheduled draft published")
		}
		return nil
	})
	if err != nil {
		return processed, err
	}

	if depth, err := s.jobs.CountDeadLettered(ctx, s.maxAttempts); err == nil {
		s.metrics.SetDLQDepth(depth)
	}

	return processed, nil
}

// handleFailure books one failed attempt: bump attempts, write the ledger
// entry, then either arm the exponential backoff or dead-letter the job.
func (s *Service) handleFailure(ctx context.Context, tx *gorm.DB, job models.ScheduledJob, cause error) error {
	s.metrics.IncFailure()
	attempts := job.Attempts + 1

	var nextRetryAt *time.Time
	if attempts < s.maxAttempts {
		at := s.now().UTC().Add(schedule.RetryDelay(s.retryBackoff, attempts))
		nextRetryAt = &at
	} else {
		s.metrics.IncDeadLetter()
	}

	ctx = s.logg.WithField(ctx, "attempts", attempts)
	ctx = s.logg.WithField(ctx, "error", cause.Error())
	if nextRetryAt != nil {
		s.logg.Warn(s.logg.WithField(ctx, "next_retry_at", nextRetryAt.Format(time.RFC3339)), "scheduled publish failed, retry armed")
	} else {
		s.logg.Warn(ctx, "scheduled publish failed, job dead-lettered")
	}

	if err := s.jobs.WithTx(tx).MarkFailure(ctx, job.ID, attempts, cause.Error(), nextRetryAt); err != nil {
		return fmt.Errorf("mark failure %s: %w", job.ID, err)
	}

	jobID := job.ID
	if _, err := s.ledger.WithTx(tx).RecordFailure(ctx, failures.FailureInput{
		DraftID:        job.DraftID,
		ScheduledJobID: &jobID,
		Context:        enums.FailureContextScheduled,
		Err:            cause,
		AttemptNo:      attempts,
	}); err != nil {
		return fmt.Errorf("record failure %s: %w", job.ID, err)
	}

	return nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}

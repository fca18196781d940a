package cron

import (
	"context"
	"fmt"

	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/metrics"
)

type deadLetterCounter interface {
	CountDeadLettered(ctx context.Context, maxAttempts int) (int64, error)
}

type DeadLetterReportJobParams struct {
	Logger      *logger.Logger
	Jobs        deadLetterCounter
	Metrics     *metrics.SchedulerMetrics
	MaxAttempts int
}

// NewDeadLetterReportJob surfaces the dead-letter queue depth so stuck
// publications show up in dashboards instead of only in the failure ledger.
func NewDeadLetterReportJob(params DeadLetterReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	return &deadLetterReportJob{
		logg:        params.Logger,
		jobs:        params.Jobs,
		metrics:     params.Metrics,
		maxAttempts: params.MaxAttempts,
	}, nil
}

type deadLetterReportJob struct {
	logg        *logger.Logger
	jobs        deadLetterCounter
	metrics     *metrics.SchedulerMetrics
	maxAttempts int
}

func (j *deadLetterReportJob) Name() string { return "deadletter-report" }

func (j *deadLetterReportJob) Run(ctx context.Context) error {
	depth, err := j.jobs.CountDeadLettered(ctx, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("deadletter report: %w", err)
	}
	j.metrics.SetDLQDepth(depth)

	logCtx := j.logg.WithField(ctx, "dlq_depth", depth)
	if depth > 0 {
		j.logg.Warn(logCtx, "dead-lettered jobs awaiting manual retry")
		return nil
	}
	j.logg.Info(logCtx, "dead-letter queue empty")
	return nil
}

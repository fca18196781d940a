package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/draftdesk/draftdesk-backend/pkg/logger"
)

const defaultSessionIdleTTL = 6 * time.Hour

type sessionExpirer interface {
	ExpireIdle(ctx context.Context, idleTTL time.Duration) (int64, error)
}

type SessionsCleanupJobParams struct {
	Logger   *logger.Logger
	Sessions sessionExpirer
	IdleTTL  time.Duration
}

// NewSessionsCleanupJob expires editing sessions whose operator went quiet.
func NewSessionsCleanupJob(params SessionsCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	idleTTL := params.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultSessionIdleTTL
	}
	return &sessionsCleanupJob{
		logg:     params.Logger,
		sessions: params.Sessions,
		idleTTL:  idleTTL,
	}, nil
}

type sessionsCleanupJob struct {
	logg     *logger.Logger
	sessions sessionExpirer
	idleTTL  time.Duration
}

func (j *sessionsCleanupJob) Name() string { return "sessions-cleanup" }

func (j *sessionsCleanupJob) Run(ctx context.Context) error {
	expired, err := j.sessions.ExpireIdle(ctx, j.idleTTL)
	if err != nil {
		return fmt.Errorf("sessions cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"idle_ttl":     j.idleTTL.String(),
		"rows_expired": expired,
	})
	j.logg.Info(logCtx, "sessions cleanup complete")
	return nil
}

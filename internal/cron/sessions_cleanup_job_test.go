package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draftdesk/draftdesk-backend/pkg/logger"
)

type stubExpirer struct {
	expired int64
	err     error
	ttls    []time.Duration
}

func (s *stubExpirer) ExpireIdle(ctx context.Context, idleTTL time.Duration) (int64, error) {
	s.ttls = append(s.ttls, idleTTL)
	return s.expired, s.err
}

func TestSessionsCleanupJobRunsWithConfiguredTTL(t *testing.T) {
	expirer := &stubExpirer{expired: 4}
	job, err := NewSessionsCleanupJob(SessionsCleanupJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Sessions: expirer,
		IdleTTL:  2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(expirer.ttls) != 1 || expirer.ttls[0] != 2*time.Hour {
		t.Fatalf("expected configured TTL passed through, got %v", expirer.ttls)
	}
}

func TestSessionsCleanupJobDefaultsTTL(t *testing.T) {
	expirer := &stubExpirer{}
	job, err := NewSessionsCleanupJob(SessionsCleanupJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Sessions: expirer,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(expirer.ttls) != 1 || expirer.ttls[0] != defaultSessionIdleTTL {
		t.Fatalf("expected default TTL, got %v", expirer.ttls)
	}
}

func TestSessionsCleanupJobPropagatesError(t *testing.T) {
	job, err := NewSessionsCleanupJob(SessionsCleanupJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Sessions: &stubExpirer{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

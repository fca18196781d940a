package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/metrics"
)

type stubCounter struct {
	depth int64
	err   error
}

func (s *stubCounter) CountDeadLettered(ctx context.Context, maxAttempts int) (int64, error) {
	return s.depth, s.err
}

func TestDeadLetterReportJobSetsGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	schedulerMetrics := metrics.NewSchedulerMetrics(registry)

	job, err := NewDeadLetterReportJob(DeadLetterReportJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "cron-test"}),
		Jobs:        &stubCounter{depth: 7},
		Metrics:     schedulerMetrics,
		MaxAttempts: 5,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() != "scheduler_dlq_depth" {
			continue
		}
		found = true
		if got := family.GetMetric()[0].GetGauge().GetValue(); got != 7 {
			t.Fatalf("expected gauge 7, got %v", got)
		}
	}
	if !found {
		t.Fatal("scheduler_dlq_depth gauge not registered")
	}
}

func TestDeadLetterReportJobPropagatesError(t *testing.T) {
	job, err := NewDeadLetterReportJob(DeadLetterReportJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "cron-test"}),
		Jobs:        &stubCounter{err: errors.New("db down")},
		MaxAttempts: 5,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDeadLetterReportJobValidatesParams(t *testing.T) {
	_, err := NewDeadLetterReportJob(DeadLetterReportJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Jobs:   &stubCounter{},
	})
	if err == nil {
		t.Fatal("expected error for zero max attempts")
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics records publication scheduler activity.
type SchedulerMetrics struct {
	ticks       prometheus.Counter
	published   prometheus.Counter
	failures    prometheus.Counter
	deadLetters prometheus.Counter
	dlqDepth    prometheus.Gauge
	duration    prometheus.Histogram
}

// NewSchedulerMetrics registers the scheduler metrics on the provided registerer.
func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	if reg == nil {
		return &SchedulerMetrics{}
	}
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_ticks_total",
		Help: "Completed scheduler ticks.",
	})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_published_total",
		Help: "Scheduled jobs published successfully.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_publish_failures_total",
		Help: "Scheduled publish attempts that failed.",
	})
	deadLetters := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_dead_letters_total",
		Help: "Jobs moved to the dead-letter state.",
	})
	dlqDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_dlq_depth",
		Help: "Jobs currently dead-lettered and awaiting manual intervention.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_publish_duration_seconds",
		Help:    "Duration of scheduled publish attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ticks, published, failures, deadLetters, dlqDepth, duration)
	return &SchedulerMetrics{
		ticks:       ticks,
		published:   published,
		failures:    failures,
		deadLetters: deadLetters,
		dlqDepth:    dlqDepth,
		duration:    duration,
	}
}

// IncTick counts one completed tick.
func (s *SchedulerMetrics) IncTick() {
	if s == nil || s.ticks == nil {
		return
	}
	s.ticks.Inc()
}

// IncPublished counts one successful publication.
func (s *SchedulerMetrics) IncPublished() {
	if s == nil || s.published == nil {
		return
	}
	s.published.Inc()
}

// IncFailure counts one failed publish attempt.
func (s *SchedulerMetrics) IncFailure() {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.Inc()
}

// IncDeadLetter counts one job entering the dead-letter state.
func (s *SchedulerMetrics) IncDeadLetter() {
	if s == nil || s.deadLetters == nil {
		return
	}
	s.deadLetters.Inc()
}

// SetDLQDepth records the current dead-letter backlog size.
func (s *SchedulerMetrics) SetDLQDepth(depth int64) {
	if s == nil || s.dlqDepth == nil {
		return
	}
	s.dlqDepth.Set(float64(depth))
}

// ObservePublishDuration records how long a publish attempt took.
func (s *SchedulerMetrics) ObservePublishDuration(duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.Observe(duration.Seconds())
}

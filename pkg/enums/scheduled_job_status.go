package enums

import "fmt"

// ScheduledJobStatus tracks the lifecycle of a pending publication.
type ScheduledJobStatus string

const (
	JobStatusScheduled ScheduledJobStatus = "scheduled"
	JobStatusPublished ScheduledJobStatus = "published"
	JobStatusCancelled ScheduledJobStatus = "cancelled"
	JobStatusFailed    ScheduledJobStatus = "failed"
)

var validScheduledJobStatuses = []ScheduledJobStatus{
	JobStatusScheduled,
	JobStatusPublished,
	JobStatusCancelled,
	JobStatusFailed,
}

// String returns the literal string for the status.
func (s ScheduledJobStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s ScheduledJobStatus) IsValid() bool {
	for _, candidate := range validScheduledJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScheduledJobStatus converts raw input into a ScheduledJobStatus.
func ParseScheduledJobStatus(value string) (ScheduledJobStatus, error) {
	for _, candidate := range validScheduledJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scheduled job status %q", value)
}

package enums

import "fmt"

// EditingSessionStatus tracks whether an operator is still editing a draft.
type EditingSessionStatus string

const (
	SessionStatusActive    EditingSessionStatus = "active"
	SessionStatusClosed    EditingSessionStatus = "closed"
	SessionStatusCancelled EditingSessionStatus = "cancelled"
	SessionStatusExpired   EditingSessionStatus = "expired"
)

var validEditingSessionStatuses = []EditingSessionStatus{
	SessionStatusActive,
	SessionStatusClosed,
	SessionStatusCancelled,
	SessionStatusExpired,
}

// String returns the literal string for the status.
func (s EditingSessionStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s EditingSessionStatus) IsValid() bool {
	for _, candidate := range validEditingSessionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEditingSessionStatus converts raw input into an EditingSessionStatus.
func ParseEditingSessionStatus(value string) (EditingSessionStatus, error) {
	for _, candidate := range validEditingSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid editing session status %q", value)
}

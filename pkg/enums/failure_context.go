package enums

import "fmt"

// FailureContext records which publish path produced a failure record.
type FailureContext string

const (
	FailureContextScheduled FailureContext = "scheduled"
	FailureContextManual    FailureContext = "manual"
)

var validFailureContexts = []FailureContext{
	FailureContextScheduled,
	FailureContextManual,
}

// String returns the literal string for the context.
func (c FailureContext) String() string {
	return string(c)
}

// IsValid reports whether the context is known.
func (c FailureContext) IsValid() bool {
	for _, candidate := range validFailureContexts {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseFailureContext converts raw input into a FailureContext.
func ParseFailureContext(value string) (FailureContext, error) {
	for _, candidate := range validFailureContexts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid failure context %q", value)
}

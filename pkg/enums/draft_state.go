package enums

import "fmt"

// DraftState describes where a draft sits in the moderation pipeline.
type DraftState string

const (
	DraftStateInbox     DraftState = "inbox"
	DraftStateEditing   DraftState = "editing"
	DraftStateReady     DraftState = "ready"
	DraftStateScheduled DraftState = "scheduled"
	DraftStatePublished DraftState = "published"
	DraftStateArchive   DraftState = "archive"
)

var validDraftStates = []DraftState{
	DraftStateInbox,
	DraftStateEditing,
	DraftStateReady,
	DraftStateScheduled,
	DraftStatePublished,
	DraftStateArchive,
}

// String returns the literal string for the state.
func (s DraftState) String() string {
	return string(s)
}

// IsValid reports whether the state is known.
func (s DraftState) IsValid() bool {
	for _, candidate := range validDraftStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDraftState converts raw input into a DraftState.
func ParseDraftState(value string) (DraftState, error) {
	for _, candidate := range validDraftStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid draft state %q", value)
}

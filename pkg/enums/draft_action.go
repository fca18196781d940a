package enums

import "fmt"

// DraftAction names an operator (or scheduler) request against a draft.
type DraftAction string

const (
	ActionToEditing      DraftAction = "to_editing"
	ActionToReady        DraftAction = "to_ready"
	ActionToArchive      DraftAction = "to_archive"
	ActionSchedule       DraftAction = "schedule"
	ActionCancelSchedule DraftAction = "cancel_schedule"
	ActionPublishNow     DraftAction = "publish_now"
	ActionRepost         DraftAction = "repost"
)

var validDraftActions = []DraftAction{
	ActionToEditing,
	ActionToReady,
	ActionToArchive,
	ActionSchedule,
	ActionCancelSchedule,
	ActionPublishNow,
	ActionRepost,
}

// String returns the literal string for the action.
func (a DraftAction) String() string {
	return string(a)
}

// IsValid reports whether the action is known.
func (a DraftAction) IsValid() bool {
	for _, candidate := range validDraftActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseDraftAction converts raw input into a DraftAction.
func ParseDraftAction(value string) (DraftAction, error) {
	for _, candidate := range validDraftActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid draft action %q", value)
}

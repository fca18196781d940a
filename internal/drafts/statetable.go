package drafts

import "github.com/draftdesk/draftdesk-backend/pkg/enums"

type transitionKey struct {
	from   enums.DraftState
	action enums.DraftAction
}

// transitions is the full lifecycle table. Any (state, action) pair absent
// here is ignored by the engine rather than rejected with an error.
var transitions = map[transitionKey]enums.DraftState{
	{enums.DraftStateInbox, enums.ActionToEditing}: enums.DraftStateEditing,
	{enums.DraftStateInbox, enums.ActionToArchive}: enums.DraftStateArchive,

	{enums.DraftStateEditing, enums.ActionToReady}:   enums.DraftStateReady,
	{enums.DraftStateEditing, enums.ActionToArchive}: enums.DraftStateArchive,

	{enums.DraftStateReady, enums.ActionToEditing}:  enums.DraftStateEditing,
	{enums.DraftStateReady, enums.ActionToArchive}:  enums.DraftStateArchive,
	{enums.DraftStateReady, enums.ActionSchedule}:   enums.DraftStateScheduled,
	{enums.DraftStateReady, enums.ActionPublishNow}: enums.DraftStatePublished,

	// Scheduling again while scheduled is a reschedule in place.
	{enums.DraftStateScheduled, enums.ActionSchedule}:       enums.DraftStateScheduled,
	{enums.DraftStateScheduled, enums.ActionCancelSchedule}: enums.DraftStateReady,
	{enums.DraftStateScheduled, enums.ActionPublishNow}:     enums.DraftStatePublished,
	{enums.DraftStateScheduled, enums.ActionToArchive}:      enums.DraftStateArchive,

	{enums.DraftStatePublished, enums.ActionRepost}:    enums.DraftStatePublished,
	{enums.DraftStatePublished, enums.ActionToEditing}: enums.DraftStateEditing,
	{enums.DraftStatePublished, enums.ActionToArchive}: enums.DraftStateArchive,
}

// TargetState resolves the lifecycle table. ok is false when the action is
// not legal from the given state; archive defines no outgoing transitions.
func TargetState(from enums.DraftState, action enums.DraftAction) (enums.DraftState, bool) {
	target, ok := transitions[transitionKey{from: from, action: action}]
	return target, ok
}

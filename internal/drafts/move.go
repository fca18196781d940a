package drafts

import (
	"context"
	"time"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/telegram"
)

// moveInGroup presents the draft in the topic mapped to targetState: new post
// and card messages go out first, only then are the draft's message pointers
// swapped and the old pair best-effort deleted. A crash at any point leaves at
// least one complete representation of the draft visible.
func (e *engine) moveInGroup(ctx context.Context, draft *models.Draft, targetState enums.DraftState, scheduleAt *time.Time) error {
	groupID := e.publishing.GroupID
	if groupID == 0 {
		return pkgerrors.New(pkgerrors.CodeConfig, "moderation group is not configured")
	}
	topicID, err := e.publishing.TopicFor(targetState)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfig, err, "resolve target topic")
	}

	post, err := e.gateway.SendPost(ctx, groupID, topicID, e.renderer.Post(draft), e.renderer.Keyboard(draft, targetState, scheduleAt))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "send post message")
	}

	card, err := e.gateway.SendText(ctx, groupID, topicID, e.renderer.Card(draft, targetState, scheduleAt), nil)
	if err != nil {
		// Compensate: the draft must never point at a post with no card.
		if delErr := e.gateway.DeleteMessage(ctx, groupID, post.MessageID); delErr != nil && !telegram.IsIgnorable(delErr) {
			e.logg.Error(ctx, "delete orphaned post message", delErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "send card message")
	}

	oldGroupID := draft.GroupID
	oldPostMessageID := draft.PostMessageID
	oldCardMessageID := draft.CardMessageID

	draft.GroupID = &groupID
	draft.TopicID = &topicID
	draft.PostMessageID = &post.MessageID
	draft.CardMessageID = &card.MessageID

	if oldGroupID != nil {
		e.cleanupMessage(ctx, *oldGroupID, oldPostMessageID)
		e.cleanupMessage(ctx, *oldGroupID, oldCardMessageID)
	}

	return nil
}

// cleanupMessage deletes a superseded message, swallowing every failure. The
// old messages may already be gone and their removal is cosmetic.
func (e *engine) cleanupMessage(ctx context.Context, chatID int64, messageID *int) {
	if messageID == nil {
		return
	}
	if err := e.gateway.DeleteMessage(ctx, chatID, *messageID); err != nil && !telegram.IsIgnorable(err) {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "delete superseded message")
	}
}

// refreshSchedule updates the displayed publication time on a draft that is
// being rescheduled in place: the post keeps its topic and ids, only the
// keyboard and the card text change.
func (e *engine) refreshSchedule(ctx context.Context, draft *models.Draft, scheduleAt *time.Time) error {
	if draft.GroupID == nil {
		return nil
	}
	groupID := *draft.GroupID

	if draft.PostMessageID != nil {
		kb := e.renderer.Keyboard(draft, enums.DraftStateScheduled, scheduleAt)
		if err := e.gateway.EditReplyMarkup(ctx, groupID, *draft.PostMessageID, kb); err != nil && !telegram.IsNotModified(err) {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "refresh post keyboard")
		}
	}

	if draft.CardMessageID != nil {
		text := e.renderer.Card(draft, enums.DraftStateScheduled, scheduleAt)
		if err := e.gateway.EditText(ctx, groupID, *draft.CardMessageID, text, nil); err != nil && !telegram.IsNotModified(err) {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "refresh card text")
		}
	}

	return nil
}

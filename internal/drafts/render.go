package drafts

import (
	"fmt"
	"strings"
	"time"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	"github.com/draftdesk/draftdesk-backend/pkg/telegram"
)

// Renderer turns a draft into the message content and keyboards the engine
// ships through the gateway. Rendering detail lives here so the engine stays
// a pure state machine.
type Renderer interface {
	Post(draft *models.Draft) telegram.PostContent
	Card(draft *models.Draft, state enums.DraftState, scheduleAt *time.Time) string
	Keyboard(draft *models.Draft, state enums.DraftState, scheduleAt *time.Time) *telegram.Keyboard
}

type renderer struct{}

// NewRenderer builds the default plain-text renderer.
func NewRenderer() Renderer {
	return &renderer{}
}

func (renderer) Post(draft *models.Draft) telegram.PostContent {
	content := telegram.PostContent{Text: draft.Body}
	if strings.TrimSpace(draft.Title) != "" {
		content.Text = draft.Title + "\n\n" + draft.Body
	}
	if draft.MediaURL != nil {
		content.PhotoURL = *draft.MediaURL
	}
	return content
}

func (renderer) Card(draft *models.Draft, state enums.DraftState, scheduleAt *time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft %s\n", draft.ID)
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(state.String()))
	if state == enums.DraftStateScheduled && scheduleAt != nil {
		fmt.Fprintf(&b, "Publishes at: %s\n", scheduleAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if draft.PublishedAt != nil {
		fmt.Fprintf(&b, "Published at: %s\n", draft.PublishedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (renderer) Keyboard(draft *models.Draft, state enums.DraftState, scheduleAt *time.Time) *telegram.Keyboard {
	actions := keyboardActions(state)
	if len(actions) == 0 {
		return nil
	}

	kb := &telegram.Keyboard{}
	row := make([]telegram.Button, 0, len(actions))
	for _, action := range actions {
		row = append(row, telegram.Button{
			Label: buttonLabel(action, scheduleAt),
			Data:  fmt.Sprintf("draft:%s:%s", draft.ID, action),
		})
		if len(row) == 2 {
			kb.Rows = append(kb.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb.Rows = append(kb.Rows, row)
	}
	return kb
}

func keyboardActions(state enums.DraftState) []enums.DraftAction {
	switch state {
	case enums.DraftStateInbox:
		return []enums.DraftAction{enums.ActionToEditing, enums.ActionToArchive}
	case enums.DraftStateEditing:
		return []enums.DraftAction{enums.ActionToReady, enums.ActionToArchive}
	case enums.DraftStateReady:
		return []enums.DraftAction{enums.ActionSchedule, enums.ActionPublishNow, enums.ActionToEditing, enums.ActionToArchive}
	case enums.DraftStateScheduled:
		return []enums.DraftAction{enums.ActionSchedule, enums.ActionCancelSchedule, enums.ActionPublishNow, enums.ActionToArchive}
	case enums.DraftStatePublished:
		return []enums.DraftAction{enums.ActionRepost, enums.ActionToEditing, enums.ActionToArchive}
	default:
		return nil
	}
}

func buttonLabel(action enums.DraftAction, scheduleAt *time.Time) string {
	switch action {
	case enums.ActionToEditing:
		return "Edit"
	case enums.ActionToReady:
		return "Ready"
	case enums.ActionToArchive:
		return "Archive"
	case enums.ActionSchedule:
		if scheduleAt != nil {
			return fmt.Sprintf("Reschedule (%s)", scheduleAt.UTC().Format("Jan 2 15:04"))
		}
		return "Schedule"
	case enums.ActionCancelSchedule:
		return "Cancel schedule"
	case enums.ActionPublishNow:
		return "Publish now"
	case enums.ActionRepost:
		return "Repost"
	default:
		return string(action)
	}
}

package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
)

// DraftView is the public shape of a draft.
type DraftView struct {
	ID                 uuid.UUID  `json:"id"`
	State              string     `json:"state"`
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	MediaURL           *string    `json:"media_url,omitempty"`
	GroupID            *int64     `json:"group_id,omitempty"`
	TopicID            *int64     `json:"topic_id,omitempty"`
	PostMessageID      *int       `json:"post_message_id,omitempty"`
	CardMessageID      *int       `json:"card_message_id,omitempty"`
	PublishedMessageID *int       `json:"published_message_id,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// DraftListView wraps a page of drafts plus the next page cursor.
type DraftListView struct {
	Drafts     []DraftView `json:"drafts"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// TransitionResult reports whether the requested action actually moved the
// draft. Illegal state/action pairs come back with Applied false.
type TransitionResult struct {
	Draft   DraftView `json:"draft"`
	Applied bool      `json:"applied"`
}

// ScheduledJobView is the public shape of a publication job.
type ScheduledJobView struct {
	ID          uuid.UUID  `json:"id"`
	DraftID     uuid.UUID  `json:"draft_id"`
	ScheduleAt  time.Time  `json:"schedule_at"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScheduledJobListView wraps a page of jobs plus the next page cursor.
type ScheduledJobListView struct {
	Jobs       []ScheduledJobView `json:"jobs"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// FailureRecordView is the public shape of a failure ledger entry.
type FailureRecordView struct {
	ID             uuid.UUID       `json:"id"`
	DraftID        uuid.UUID       `json:"draft_id"`
	ScheduledJobID *uuid.UUID      `json:"scheduled_job_id,omitempty"`
	Context        string          `json:"context"`
	ErrorMessage   string          `json:"error_message"`
	AttemptNo      int             `json:"attempt_no"`
	Details        json.RawMessage `json:"details,omitempty"`
	Resolved       bool            `json:"resolved"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FailureRecordListView wraps a page of ledger entries plus the next cursor.
type FailureRecordListView struct {
	Failures   []FailureRecordView `json:"failures"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func draftView(d *models.Draft) DraftView {
	return DraftView{
		ID:                 d.ID,
		State:              d.State.String(),
		Title:              d.Title,
		Body:               d.Body,
		MediaURL:           d.MediaURL,
		GroupID:            d.GroupID,
		TopicID:            d.TopicID,
		PostMessageID:      d.PostMessageID,
		CardMessageID:      d.CardMessageID,
		PublishedMessageID: d.PublishedMessageID,
		PublishedAt:        d.PublishedAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func draftListView(list *drafts.DraftList) DraftListView {
	out := DraftListView{
		Drafts:     make([]DraftView, 0, len(list.Drafts)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Drafts {
		out.Drafts = append(out.Drafts, draftView(&list.Drafts[i]))
	}
	return out
}

func jobView(j *models.ScheduledJob) ScheduledJobView {
	return ScheduledJobView{
		ID:          j.ID,
		DraftID:     j.DraftID,
		ScheduleAt:  j.ScheduleAt,
		Status:      j.Status.String(),
		Attempts:    j.Attempts,
		LastError:   j.LastError,
		NextRetryAt: j.NextRetryAt,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func jobListView(list *schedule.JobList) ScheduledJobListView {
	out := ScheduledJobListView{
		Jobs:       make([]ScheduledJobView, 0, len(list.Jobs)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Jobs {
		out.Jobs = append(out.Jobs, jobView(&list.Jobs[i]))
	}
	return out
}

func failureView(rec *models.PublishFailureRecord) FailureRecordView {
	return FailureRecordView{
		ID:             rec.ID,
		DraftID:        rec.DraftID,
		ScheduledJobID: rec.ScheduledJobID,
		Context:        rec.Context.String(),
		ErrorMessage:   rec.ErrorMessage,
		AttemptNo:      rec.AttemptNo,
		Details:        rec.Details,
		Resolved:       rec.Resolved,
		CreatedAt:      rec.CreatedAt,
	}
}

func failureListView(list *failures.RecordList) FailureRecordListView {
	out := FailureRecordListView{
		Failures:   make([]FailureRecordView, 0, len(list.Records)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Records {
		out.Failures = append(out.Failures, failureView(&list.Records[i]))
	}
	return out
}

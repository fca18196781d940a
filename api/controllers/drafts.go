package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/api/responses"
	"github.com/draftdesk/draftdesk-backend/api/validators"
	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

// TransitionBody is one operator action against a draft. ScheduleAt is only
// read for the schedule action and must be a future instant.
type TransitionBody struct {
	Action     string     `json:"action" validate:"required"`
	OperatorID int64      `json:"operator_id" validate:"required"`
	ScheduleAt *time.Time `json:"schedule_at,omitempty"`
}

// TransitionDraft applies a lifecycle action to a draft. Illegal state/action
// pairs are not errors: the draft comes back unchanged with applied=false.
func TransitionDraft(engine drafts.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle engine unavailable"))
			return
		}

		draftID, err := parseDraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body TransitionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParseDraftAction(body.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}

		draft, applied, err := engine.Transition(r.Context(), drafts.TransitionInput{
			DraftID:    draftID,
			Action:     action,
			OperatorID: body.OperatorID,
			ScheduleAt: body.ScheduleAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, TransitionResult{Draft: draftView(draft), Applied: applied})
	}
}

// GetDraft returns one draft by id.
func GetDraft(engine drafts.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle engine unavailable"))
			return
		}

		draftID, err := parseDraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := engine.Get(r.Context(), draftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, draftView(draft))
	}
}

// ListDrafts returns a page of drafts in the requested state, newest first.
func ListDrafts(engine drafts.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle engine unavailable"))
			return
		}

		rawState := strings.TrimSpace(r.URL.Query().Get("state"))
		if rawState == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "state is required"))
			return
		}
		state, err := enums.ParseDraftState(rawState)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid state"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := engine.List(r.Context(), state, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, draftListView(list))
	}
}

// ListDraftFailures returns a draft's failure ledger, newest first. Resolved
// entries stay in the history.
func ListDraftFailures(ledger failures.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "failure ledger unavailable"))
			return
		}

		draftID, err := parseDraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := ledger.ListByDraft(r.Context(), draftID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, failureListView(list))
	}
}

func parseDraftID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "draftId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "draft id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid draft id")
	}
	return id, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

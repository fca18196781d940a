package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

type stubEngine struct {
	transitionFn func(ctx context.Context, input drafts.TransitionInput) (*models.Draft, bool, error)
	getFn        func(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
	listFn       func(ctx context.Context, state enums.DraftState, params pagination.Params) (*drafts.DraftList, error)
}

func (s *stubEngine) Transition(ctx context.Context, input drafts.TransitionInput) (*models.Draft, bool, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, input)
	}
	return nil, false, fmt.Errorf("not implemented")
}

func (s *stubEngine) PublishClaimed(ctx context.Context, tx *gorm.DB, job models.ScheduledJob) (bool, error) {
	return false, fmt.Errorf("not implemented")
}

func (s *stubEngine) Get(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	if s.getFn != nil {
		return s.getFn(ctx, draftID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (s *stubEngine) List(ctx context.Context, state enums.DraftState, params pagination.Params) (*drafts.DraftList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, state, params)
	}
	return nil, fmt.Errorf("not implemented")
}

type stubLedger struct {
	listFn func(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*failures.RecordList, error)
}

func (s *stubLedger) WithTx(tx *gorm.DB) failures.Ledger { return s }

func (s *stubLedger) RecordFailure(ctx context.Context, input failures.FailureInput) (*models.PublishFailureRecord, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubLedger) Resolve(ctx context.Context, draftID uuid.UUID) error {
	return fmt.Errorf("not implemented")
}

func (s *stubLedger) ListByDraft(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*failures.RecordList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, draftID, params)
	}
	return nil, fmt.Errorf("not implemented")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func testDraft(id uuid.UUID, state enums.DraftState) *models.Draft {
	return &models.Draft{
		ID:        id,
		State:     state,
		Title:     "Fresh release notes",
		Body:      "Details inside.",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestTransitionDraftApplied(t *testing.T) {
	draftID := uuid.New()
	engine := &stubEngine{
		transitionFn: func(ctx context.Context, input drafts.TransitionInput) (*models.Draft, bool, error) {
			if input.DraftID != draftID {
				t.Fatalf("unexpected draft id %s", input.DraftID)
			}
			if input.Action != enums.ActionToEditing {
				t.Fatalf("unexpected action %s", input.Action)
			}
			if input.OperatorID != 42 {
				t.Fatalf("unexpected operator %d", input.OperatorID)
			}
			return testDraft(draftID, enums.DraftStateEditing), true, nil
		},
	}

	body := bytes.NewBufferString(`{"action":"to_editing","operator_id":42}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+draftID.String()+"/transitions", body)
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	TransitionDraft(engine, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data TransitionResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data.Applied {
		t.Fatal("expected applied=true")
	}
	if envelope.Data.Draft.State != "editing" {
		t.Fatalf("unexpected state %s", envelope.Data.Draft.State)
	}
}

func TestTransitionDraftIgnoredPairIsNotAnError(t *testing.T) {
	draftID := uuid.New()
	engine := &stubEngine{
		transitionFn: func(ctx context.Context, input drafts.TransitionInput) (*models.Draft, bool, error) {
			return testDraft(draftID, enums.DraftStateInbox), false, nil
		},
	}

	body := bytes.NewBufferString(`{"action":"publish_now","operator_id":42}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+draftID.String()+"/transitions", body)
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	TransitionDraft(engine, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data TransitionResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Applied {
		t.Fatal("expected applied=false")
	}
	if envelope.Data.Draft.State != "inbox" {
		t.Fatalf("draft should be unchanged, got %s", envelope.Data.Draft.State)
	}
}

func TestTransitionDraftScheduleForwardsInstant(t *testing.T) {
	draftID := uuid.New()
	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	engine := &stubEngine{
		transitionFn: func(ctx context.Context, input drafts.TransitionInput) (*models.Draft, bool, error) {
			if input.ScheduleAt == nil || !input.ScheduleAt.Equal(at) {
				t.Fatalf("unexpected schedule_at %v", input.ScheduleAt)
			}
			return testDraft(draftID, enums.DraftStateScheduled), true, nil
		},
	}

	payload := fmt.Sprintf(`{"action":"schedule","operator_id":42,"schedule_at":%q}`, at.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+draftID.String()+"/transitions", bytes.NewBufferString(payload))
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	TransitionDraft(engine, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestTransitionDraftRejectsUnknownAction(t *testing.T) {
	draftID := uuid.New()
	body := bytes.NewBufferString(`{"action":"launch","operator_id":42}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+draftID.String()+"/transitions", body)
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	TransitionDraft(&stubEngine{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransitionDraftRejectsInvalidID(t *testing.T) {
	body := bytes.NewBufferString(`{"action":"to_editing","operator_id":42}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/nope/transitions", body)
	req = addRouteParam(req, "draftId", "nope")
	resp := httptest.NewRecorder()

	TransitionDraft(&stubEngine{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransitionDraftRejectsMissingOperator(t *testing.T) {
	draftID := uuid.New()
	body := bytes.NewBufferString(`{"action":"to_editing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+draftID.String()+"/transitions", body)
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	TransitionDraft(&stubEngine{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetDraftNotFound(t *testing.T) {
	draftID := uuid.New()
	engine := &stubEngine{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+draftID.String(), nil)
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	GetDraft(engine, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListDraftsRequiresState(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts", nil)
	resp := httptest.NewRecorder()

	ListDrafts(&stubEngine{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListDraftsForwardsPagination(t *testing.T) {
	engine := &stubEngine{
		listFn: func(ctx context.Context, state enums.DraftState, params pagination.Params) (*drafts.DraftList, error) {
			if state != enums.DraftStateReady {
				t.Fatalf("unexpected state %s", state)
			}
			if params.Limit != 5 || params.Cursor != "abc" {
				t.Fatalf("unexpected params %+v", params)
			}
			return &drafts.DraftList{
				Drafts:     []models.Draft{*testDraft(uuid.New(), enums.DraftStateReady)},
				NextCursor: "next",
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts?state=ready&limit=5&cursor=abc", nil)
	resp := httptest.NewRecorder()

	ListDrafts(engine, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data DraftListView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Drafts) != 1 {
		t.Fatalf("unexpected page size %d", len(envelope.Data.Drafts))
	}
	if envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected cursor %q", envelope.Data.NextCursor)
	}
}

func TestListDraftsRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts?state=ready&limit=hundreds", nil)
	resp := httptest.NewRecorder()

	ListDrafts(&stubEngine{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListDraftFailures(t *testing.T) {
	draftID := uuid.New()
	ledger := &stubLedger{
		listFn: func(ctx context.Context, id uuid.UUID, params pagination.Params) (*failures.RecordList, error) {
			if id != draftID {
				t.Fatalf("unexpected draft id %s", id)
			}
			return &failures.RecordList{
				Records: []models.PublishFailureRecord{{
					ID:           uuid.New(),
					DraftID:      draftID,
					Context:      enums.FailureContextScheduled,
					ErrorMessage: "chat not found",
					AttemptNo:    2,
				}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+draftID.String()+"/failures", nil)
	req = addRouteParam(req, "draftId", draftID.String())
	resp := httptest.NewRecorder()

	ListDraftFailures(ledger, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data FailureRecordListView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Failures) != 1 {
		t.Fatalf("unexpected count %d", len(envelope.Data.Failures))
	}
	if envelope.Data.Failures[0].Context != "scheduled" {
		t.Fatalf("unexpected context %s", envelope.Data.Failures[0].Context)
	}
}

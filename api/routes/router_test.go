package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/drafts"
	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/pkg/config"
	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubEngine struct{}

func (stubEngine) Transition(ctx context.Context, input drafts.TransitionInput) (*models.Draft, bool, error) {
	return &models.Draft{ID: input.DraftID, State: enums.DraftStateEditing}, true, nil
}

func (stubEngine) PublishClaimed(ctx context.Context, tx *gorm.DB, job models.ScheduledJob) (bool, error) {
	return false, fmt.Errorf("not implemented")
}

func (stubEngine) Get(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
}

func (stubEngine) List(ctx context.Context, state enums.DraftState, params pagination.Params) (*drafts.DraftList, error) {
	return &drafts.DraftList{}, nil
}

type stubJobs struct{}

func (stubJobs) GetByDraft(ctx context.Context, draftID uuid.UUID) (*models.ScheduledJob, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no scheduled job for draft")
}

func (stubJobs) ListDeadLettered(ctx context.Context, params pagination.Params) (*schedule.JobList, error) {
	return &schedule.JobList{}, nil
}

func (stubJobs) Retry(ctx context.Context, jobID uuid.UUID) (*models.ScheduledJob, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheduled job not found")
}

type stubLedger struct{}

func (s stubLedger) WithTx(tx *gorm.DB) failures.Ledger { return s }

func (stubLedger) RecordFailure(ctx context.Context, input failures.FailureInput) (*models.PublishFailureRecord, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubLedger) Resolve(ctx context.Context, draftID uuid.UUID) error {
	return fmt.Errorf("not implemented")
}

func (stubLedger) ListByDraft(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*failures.RecordList, error) {
	return &failures.RecordList{}, nil
}

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	return NewRouter(RouterParams{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Engine:   stubEngine{},
		Jobs:     stubJobs{},
		Failures: stubLedger{},
	})
}

func TestRouterServesHealth(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, resp.Code)
		}
	}
}

func TestRouterServesMetrics(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics returned %d", resp.Code)
	}
}

func TestRouterWiresDraftTransitions(t *testing.T) {
	router := newTestRouter()

	draftID := uuid.New()
	body := strings.NewReader(`{"action":"to_editing","operator_id":7}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+draftID.String()+"/transitions", body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"applied":true`) {
		t.Fatalf("response missing applied flag: %s", resp.Body.String())
	}
}

func TestRouterWiresJobRoutes(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/dead-lettered", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+uuid.NewString()+"/retry", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from stub, got %d", resp.Code)
	}
}

func TestRouterAttachesRequestID(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

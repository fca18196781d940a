package failures

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

// Ledger records publish failures and resolves them once a draft finally
// goes out. All writers run inside the caller's transaction via WithTx.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	RecordFailure(ctx context.Context, input FailureInput) (*models.PublishFailureRecord, error)
	Resolve(ctx context.Context, draftID uuid.UUID) error
	ListByDraft(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*RecordList, error)
}

// FailureInput carries everything a ledger entry needs.
type FailureInput struct {
	DraftID        uuid.UUID
	ScheduledJobID *uuid.UUID
	Context        enums.FailureContext
	Err            error
	AttemptNo      int
	Details        map[string]any
}

type ledger struct {
	repo Repository
}

// NewLedger builds the failure ledger service.
func NewLedger(repo Repository) Ledger {
	return &ledger{repo: repo}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{repo: l.repo.WithTx(tx)}
}

func (l *ledger) RecordFailure(ctx context.Context, input FailureInput) (*models.PublishFailureRecord, error) {
	if input.DraftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure record requires a draft id")
	}
	if input.Err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure record requires an error")
	}
	if !input.Context.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown failure context")
	}

	record := &models.PublishFailureRecord{
		DraftID:        input.DraftID,
		ScheduledJobID: input.ScheduledJobID,
		Context:        input.Context,
		ErrorMessage:   input.Err.Error(),
		AttemptNo:      input.AttemptNo,
	}
	if len(input.Details) > 0 {
		raw, err := json.Marshal(input.Details)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode failure details")
		}
		record.Details = raw
	}

	created, err := l.repo.Record(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record publish failure")
	}
	return created, nil
}

func (l *ledger) Resolve(ctx context.Context, draftID uuid.UUID) error {
	if _, err := l.repo.ResolveForDraft(ctx, draftID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve publish failures")
	}
	return nil
}

func (l *ledger) ListByDraft(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*RecordList, error) {
	list, err := l.repo.ListByDraft(ctx, draftID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list publish failures")
	}
	return list, nil
}

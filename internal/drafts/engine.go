package drafts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/failures"
	"github.com/draftdesk/draftdesk-backend/internal/schedule"
	"github.com/draftdesk/draftdesk-backend/internal/sessions"
	"github.com/draftdesk/draftdesk-backend/pkg/config"
	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
	"github.com/draftdesk/draftdesk-backend/pkg/logger"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
	"github.com/draftdesk/draftdesk-backend/pkg/telegram"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TransitionInput is one operator action against a draft.
type TransitionInput struct {
	DraftID    uuid.UUID
	Action     enums.DraftAction
	OperatorID int64
	ScheduleAt *time.Time
}

// Engine is the draft lifecycle state machine. Transition serializes on the
// draft's row lock against every other operator action and every scheduler
// publish attempt for the same draft.
type Engine interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Draft, bool, error)
	PublishClaimed(ctx context.Context, tx *gorm.DB, job models.ScheduledJob) (bool, error)
	Get(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
	List(ctx context.Context, state enums.DraftState, params pagination.Params) (*DraftList, error)
}

// EngineParams collects the engine's collaborators.
type EngineParams struct {
	DB         txRunner
	Drafts     Repository
	Jobs       schedule.Repository
	Ledger     failures.Ledger
	Sessions   sessions.Manager
	Gateway    telegram.Gateway
	Renderer   Renderer
	Publishing config.PublishingConfig
	Logger     *logger.Logger
}

type engine struct {
	db         txRunner
	drafts     Repository
	jobs       schedule.Repository
	ledger     failures.Ledger
	sessions   sessions.Manager
	gateway    telegram.Gateway
	renderer   Renderer
	publishing config.PublishingConfig
	logg       *logger.Logger
	now        func() time.Time
}

// NewEngine builds the lifecycle engine.
func NewEngine(params EngineParams) (Engine, error) {
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Drafts == nil {
		return nil, errors.New("draft repository is required")
	}
	if params.Jobs == nil {
		return nil, errors.New("scheduled job repository is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("failure ledger is required")
	}
	if params.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("messaging gateway is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	renderer := params.Renderer
	if renderer == nil {
		renderer = NewRenderer()
	}

	return &engine{
		db:         params.DB,
		drafts:     params.Drafts,
		jobs:       params.Jobs,
		ledger:     params.Ledger,
		sessions:   params.Sessions,
		gateway:    params.Gateway,
		renderer:   renderer,
		publishing: params.Publishing,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

// Transition applies one action from the lifecycle table. The returned bool
// reports whether the action was applied; an illegal (state, action) pair
// returns the unchanged draft with applied=false and no side effects.
//
// A failed manual publish commits only its ledger entry: the transaction is
// not rolled back for it, the state does not advance, and the triggering
// error is returned to the operator.
func (e *engine) Transition(ctx context.Context, input TransitionInput) (*models.Draft, bool, error) {
	if input.DraftID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "draft id is required")
	}
	if !input.Action.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "unknown draft action")
	}
	if input.Action == enums.ActionSchedule {
		if input.ScheduleAt == nil {
			return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "schedule action requires a schedule time")
		}
		if !input.ScheduleAt.After(e.now()) {
			return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "schedule time must be in the future")
		}
	}

	ctx = e.logg.WithDraftID(ctx, input.DraftID.String())

	var (
		out        *models.Draft
		applied    bool
		publishErr error
	)

	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		draftRepo := e.drafts.WithTx(tx)
		jobRepo := e.jobs.WithTx(tx)
		ledger := e.ledger.WithTx(tx)
		sessionMgr := e.sessions.WithTx(tx)

		draft, err := draftRepo.LockByID(ctx, input.DraftID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock draft")
		}

		target, ok := TargetState(draft.State, input.Action)
		if !ok {
			out = draft
			return nil
		}

		switch input.Action {
		case enums.ActionSchedule:
			if _, err := jobRepo.Upsert(ctx, draft.ID, *input.ScheduleAt); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert scheduled job")
			}
		case enums.ActionCancelSchedule:
			if _, err := jobRepo.Cancel(ctx, draft.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel scheduled job")
			}
		case enums.ActionPublishNow, enums.ActionRepost:
			if err := e.publish(ctx, draft); err != nil {
				if _, recErr := ledger.RecordFailure(ctx, failures.FailureInput{
					DraftID:   draft.ID,
					Context:   enums.FailureContextManual,
					Err:       err,
					AttemptNo: 1,
				}); recErr != nil {
					return recErr
				}
				publishErr = err
				out = draft
				return nil
			}
			if err := draftRepo.Save(ctx, draft); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record published message")
			}
			if err := ledger.Resolve(ctx, draft.ID); err != nil {
				return err
			}
			if draft.State == enums.DraftStateScheduled {
				if _, err := jobRepo.MarkPublishedByDraft(ctx, draft.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close scheduled job")
				}
			}
		}

		reschedule := input.Action == enums.ActionSchedule && draft.State == enums.DraftStateScheduled
		if reschedule {
			if err := e.refreshSchedule(ctx, draft, input.ScheduleAt); err != nil {
				return err
			}
		} else {
			if err := e.moveInGroup(ctx, draft, target, input.ScheduleAt); err != nil {
				return err
			}
		}

		draft.State = target

		switch {
		case target == enums.DraftStateEditing:
			if _, err := sessionMgr.Start(ctx, draft.ID, input.OperatorID); err != nil {
				return err
			}
		case input.Action == enums.ActionToArchive:
			if err := sessionMgr.Cancel(ctx, draft.ID); err != nil {
				return err
			}
		case input.Action == enums.ActionToReady:
			if err := sessionMgr.Close(ctx, draft.ID); err != nil {
				return err
			}
		}

		if err := draftRepo.Save(ctx, draft); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist draft")
		}

		out = draft
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if publishErr != nil {
		return out, false, pkgerrors.Wrap(pkgerrors.CodeGateway, publishErr, "manual publish failed")
	}
	return out, applied, nil
}

// publish broadcasts the draft to the output channel and stamps the returned
// message id on the draft. The caller persists the draft.
func (e *engine) publish(ctx context.Context, draft *models.Draft) error {
	channelID, err := e.publishing.OutputChannel()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfig, err, "resolve output channel")
	}

	sent, err := e.gateway.SendPost(ctx, channelID, 0, e.renderer.Post(draft), nil)
	if err != nil {
		return err
	}

	now := e.now().UTC()
	draft.PublishedMessageID = &sent.MessageID
	draft.PublishedAt = &now
	return nil
}

// PublishClaimed drives one claimed job through the publish path inside the
// scheduler's transaction. It locks the draft, then either cancels the job
// (the draft left SCHEDULED out-of-band; returns false, nil) or publishes,
// relocates and closes the job (returns true, nil). Attempt bookkeeping on
// failure is the caller's job.
func (e *engine) PublishClaimed(ctx context.Context, tx *gorm.DB, job models.ScheduledJob) (bool, error) {
	draftRepo := e.drafts.WithTx(tx)
	jobRepo := e.jobs.WithTx(tx)
	ledger := e.ledger.WithTx(tx)

	draft, err := draftRepo.LockByID(ctx, job.DraftID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock draft")
	}

	if draft.State != enums.DraftStateScheduled {
		if err := jobRepo.CancelByID(ctx, job.ID); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel superseded job")
		}
		return false, nil
	}

	// A retry after a crash between publish and relocation must not
	// broadcast the draft a second time.
	if !draft.IsPublished() {
		if err := e.publish(ctx, draft); err != nil {
			return false, err
		}
		if err := draftRepo.Save(ctx, draft); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record published message")
		}
	}

	if err := e.moveInGroup(ctx, draft, enums.DraftStatePublished, nil); err != nil {
		return false, err
	}

	draft.State = enums.DraftStatePublished
	if err := draftRepo.Save(ctx, draft); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist draft")
	}

	if err := jobRepo.MarkPublishedByID(ctx, job.ID); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close scheduled job")
	}
	if err := ledger.Resolve(ctx, draft.ID); err != nil {
		return false, err
	}

	return true, nil
}

func (e *engine) Get(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	draft, err := e.drafts.GetByID(ctx, draftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft")
	}
	return draft, nil
}

func (e *engine) List(ctx context.Context, state enums.DraftState, params pagination.Params) (*DraftList, error) {
	if !state.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown draft state")
	}
	list, err := e.drafts.ListByState(ctx, state, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drafts")
	}
	return list, nil
}

package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/pkg/db"
	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	pkgerrors "github.com/draftdesk/draftdesk-backend/pkg/errors"
)

// Manager tracks which operator has a draft in editing. A draft has at most
// one active session; starting a new one supersedes whatever was open.
type Manager interface {
	WithTx(tx *gorm.DB) Manager
	Start(ctx context.Context, draftID uuid.UUID, operatorID int64) (*models.EditingSession, error)
	Close(ctx context.Context, draftID uuid.UUID) error
	Cancel(ctx context.Context, draftID uuid.UUID) error
	Active(ctx context.Context, draftID uuid.UUID) (*models.EditingSession, error)
	ExpireIdle(ctx context.Context, idleTTL time.Duration) (int64, error)
}

type manager struct {
	repo Repository
	now  func() time.Time
}

// NewManager builds the editing session manager.
func NewManager(repo Repository) Manager {
	return &manager{repo: repo, now: time.Now}
}

func (m *manager) WithTx(tx *gorm.DB) Manager {
	if tx == nil {
		return m
	}
	return &manager{repo: m.repo.WithTx(tx), now: m.now}
}

func (m *manager) Start(ctx context.Context, draftID uuid.UUID, operatorID int64) (*models.EditingSession, error) {
	if draftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "editing session requires a draft id")
	}
	if operatorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "editing session requires an operator id")
	}

	// A repeated take by the same operator keeps the existing session.
	current, err := m.repo.FindActiveByDraft(ctx, draftID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active editing session")
	}
	if current != nil && current.OperatorID == operatorID {
		return current, nil
	}

	if current != nil {
		if _, err := m.repo.CloseActiveForDraft(ctx, draftID, enums.SessionStatusCancelled, m.now().UTC()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "supersede editing session")
		}
	}

	session, err := m.repo.Create(ctx, &models.EditingSession{
		DraftID:    draftID,
		OperatorID: operatorID,
		Status:     enums.SessionStatusActive,
		StartedAt:  m.now().UTC(),
	})
	if db.IsUniqueViolation(err, "ux_editing_sessions_active_draft") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "draft is already being edited")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start editing session")
	}
	return session, nil
}

// Close marks the draft's active session as finished normally. Closing a
// draft with no open session is a no-op.
func (m *manager) Close(ctx context.Context, draftID uuid.UUID) error {
	if _, err := m.repo.CloseActiveForDraft(ctx, draftID, enums.SessionStatusClosed, m.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close editing session")
	}
	return nil
}

// Cancel abandons the draft's active session without a normal handoff.
func (m *manager) Cancel(ctx context.Context, draftID uuid.UUID) error {
	if _, err := m.repo.CloseActiveForDraft(ctx, draftID, enums.SessionStatusCancelled, m.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel editing session")
	}
	return nil
}

func (m *manager) Active(ctx context.Context, draftID uuid.UUID) (*models.EditingSession, error) {
	session, err := m.repo.FindActiveByDraft(ctx, draftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active editing session")
	}
	return session, nil
}

// ExpireIdle sweeps sessions whose operator went quiet past the TTL.
func (m *manager) ExpireIdle(ctx context.Context, idleTTL time.Duration) (int64, error) {
	if idleTTL <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "idle TTL must be positive")
	}
	now := m.now().UTC()
	expired, err := m.repo.ExpireIdleBefore(ctx, now.Add(-idleTTL), now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire idle editing sessions")
	}
	return expired, nil
}

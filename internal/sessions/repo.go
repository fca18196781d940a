package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

// Repository defines persistence operations for editing sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.EditingSession) (*models.EditingSession, error)
	FindActiveByDraft(ctx context.Context, draftID uuid.UUID) (*models.EditingSession, error)
	CloseActiveForDraft(ctx context.Context, draftID uuid.UUID, status enums.EditingSessionStatus, closedAt time.Time) (int64, error)
	ExpireIdleBefore(ctx context.Context, cutoff time.Time, closedAt time.Time) (int64, error)
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]models.EditingSession, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an editing session repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.EditingSession) (*models.EditingSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindActiveByDraft(ctx context.Context, draftID uuid.UUID) (*models.EditingSession, error) {
	var session models.EditingSession
	err := r.db.WithContext(ctx).
		Where("draft_id = ? AND status = ?", draftID, enums.SessionStatusActive).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) CloseActiveForDraft(ctx context.Context, draftID uuid.UUID, status enums.EditingSessionStatus, closedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EditingSession{}).
		Where("draft_id = ? AND status = ?", draftID, enums.SessionStatusActive).
		Updates(map[string]any{
			"status":    status,
			"closed_at": closedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ExpireIdleBefore(ctx context.Context, cutoff time.Time, closedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EditingSession{}).
		Where("status = ? AND started_at < ?", enums.SessionStatusActive, cutoff).
		Updates(map[string]any{
			"status":    enums.SessionStatusExpired,
			"closed_at": closedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]models.EditingSession, error) {
	var rows []models.EditingSession
	err := r.db.WithContext(ctx).
		Where("draft_id = ?", draftID).
		Order("started_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package failures

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for the publish failure ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Record(ctx context.Context, record *models.PublishFailureRecord) (*models.PublishFailureRecord, error)
	ResolveForDraft(ctx context.Context, draftID uuid.UUID) (int64, error)
	ListByDraft(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*RecordList, error)
	CountUnresolved(ctx context.Context, draftID uuid.UUID) (int64, error)
}

// RecordList is a cursor page of ledger entries.
type RecordList struct {
	Records    []models.PublishFailureRecord
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a failure ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Record(ctx context.Context, record *models.PublishFailureRecord) (*models.PublishFailureRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ResolveForDraft flips every open entry for the draft to resolved. Rows are
// never deleted; the ledger keeps the full failure history.
func (r *repository) ResolveForDraft(ctx context.Context, draftID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PublishFailureRecord{}).
		Where("draft_id = ? AND resolved = ?", draftID, false).
		Update("resolved", true)
	return res.RowsAffected, res.Error
}

func (r *repository) ListByDraft(ctx context.Context, draftID uuid.UUID, params pagination.Params) (*RecordList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.PublishFailureRecord{}).
		Where("draft_id = ?", draftID)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PublishFailureRecord
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &RecordList{Records: rows}
	if len(rows) > limit {
		list.Records = rows[:limit]
		last := list.Records[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) CountUnresolved(ctx context.Context, draftID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PublishFailureRecord{}).
		Where("draft_id = ? AND resolved = ?", draftID, false).
		Count(&count).Error
	return count, err
}

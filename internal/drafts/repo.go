package drafts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/draftdesk/draftdesk-backend/pkg/db/models"
	"github.com/draftdesk/draftdesk-backend/pkg/enums"
	"github.com/draftdesk/draftdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for drafts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, draft *models.Draft) (*models.Draft, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Save(ctx context.Context, draft *models.Draft) error
	ListByState(ctx context.Context, state enums.DraftState, params pagination.Params) (*DraftList, error)
}

// DraftList is a cursor page of drafts.
type DraftList struct {
	Drafts     []models.Draft
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a draft repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	if err := r.db.WithContext(ctx).Create(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// LockByID takes the draft's exclusive row lock. Every transition and every
// scheduler publish attempt serializes on this lock for the full transaction,
// external side effects included. Must run inside a transaction.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *repository) Save(ctx context.Context, draft *models.Draft) error {
	return r.db.WithContext(ctx).Save(draft).Error
}

func (r *repository) ListByState(ctx context.Context, state enums.DraftState, params pagination.Params) (*DraftList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Draft{}).
		Where("state = ?", state)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Draft
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &DraftList{Drafts: rows}
	if len(rows) > limit {
		list.Drafts = rows[:limit]
		last := list.Drafts[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

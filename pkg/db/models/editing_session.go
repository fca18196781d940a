package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

// EditingSession records that an operator took a draft into editing.
// At most one active session exists per draft.
type EditingSession struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DraftID    uuid.UUID                  `gorm:"column:draft_id;type:uuid;not null;index:ix_editing_sessions_draft_id"`
	OperatorID int64                      `gorm:"column:operator_id;not null"`
	Status     enums.EditingSessionStatus `gorm:"column:status;not null;default:'active'"`
	StartedAt  time.Time                  `gorm:"column:started_at;autoCreateTime"`
	ClosedAt   *time.Time                 `gorm:"column:closed_at"`
	UpdatedAt  time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

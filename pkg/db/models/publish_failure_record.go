package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

// PublishFailureRecord is one entry in the append-only failure ledger.
// Records are never deleted; Resolved flips to true the next time the
// draft publishes successfully.
type PublishFailureRecord struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DraftID        uuid.UUID            `gorm:"column:draft_id;type:uuid;not null;index:ix_publish_failures_draft_id"`
	ScheduledJobID *uuid.UUID           `gorm:"column:scheduled_job_id;type:uuid"`
	Context        enums.FailureContext `gorm:"column:context;not null"`
	ErrorMessage   string               `gorm:"column:error_message;not null"`
	AttemptNo      int                  `gorm:"column:attempt_no;not null"`
	Details        json.RawMessage      `gorm:"column:details;type:jsonb"`
	Resolved       bool                 `gorm:"column:resolved;not null;default:false"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

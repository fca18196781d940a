package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

// Draft is a content item moving through moderation states toward publication.
//
// GroupID/TopicID locate the draft's current pair of moderation messages and
// are only ever written together with PostMessageID/CardMessageID: the pair
// invariant is that a non-nil PostMessageID always has a matching CardMessageID
// pointing at the same group and topic.
type Draft struct {
	ID    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	State enums.DraftState `gorm:"column:state;not null;default:'inbox'"`

	Title    string  `gorm:"column:title;not null"`
	Body     string  `gorm:"column:body;not null"`
	MediaURL *string `gorm:"column:media_url"`

	GroupID       *int64 `gorm:"column:group_id"`
	TopicID       *int64 `gorm:"column:topic_id"`
	PostMessageID *int   `gorm:"column:post_message_id"`
	CardMessageID *int   `gorm:"column:card_message_id"`

	PublishedMessageID *int       `gorm:"column:published_message_id"`
	PublishedAt        *time.Time `gorm:"column:published_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPublished reports whether the draft has ever been broadcast to the channel.
func (d *Draft) IsPublished() bool {
	return d.PublishedMessageID != nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like links a user to an artwork they liked.
type Like struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:likes_user_artwork_key"`
	ArtworkID uuid.UUID `gorm:"column:artwork_id;type:uuid;not null;uniqueIndex:likes_user_artwork_key;index:likes_artwork_id_idx"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *Like) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/types"
	"gorm.io/gorm"
)

// Artwork is a listing owned by a seller. Price is in minor units.
type Artwork struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID      uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index:artworks_seller_id_idx"`
	Title         string              `gorm:"column:title;not null"`
	Description   string              `gorm:"column:description;not null;default:''"`
	Media         types.MediaList     `gorm:"column:media;type:jsonb;not null"`
	Price         int64               `gorm:"column:price;not null"`
	Currency      enums.Currency      `gorm:"column:currency;not null;default:'INR'"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	Status        enums.ArtworkStatus `gorm:"column:status;not null"`
	LikeCount     int                 `gorm:"column:like_count;not null;default:0"`
	Tags          types.StringList    `gorm:"column:tags;type:jsonb"`
	FestivalTags  types.StringList    `gorm:"column:festival_tags;type:jsonb"`
	RecipientTags types.StringList    `gorm:"column:recipient_tags;type:jsonb"`
	Embedding     types.Embedding     `gorm:"column:embedding;type:jsonb"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Artwork) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Media == nil {
		a.Media = types.MediaList{}
	}
	return nil
}

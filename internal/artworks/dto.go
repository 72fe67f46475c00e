package artworks

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/money"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

// CreateArtworkInput is the request body for POST /artworks. Price is in major units.
type CreateArtworkInput struct {
	Title         string          `json:"title" validate:"required,max=140"`
	Description   string          `json:"description" validate:"max=5000"`
	Media         types.MediaList `json:"media" validate:"omitempty,max=10,dive"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Quantity      int             `json:"quantity" validate:"min=0"`
	Status        string          `json:"status" validate:"omitempty,oneof=draft published"`
	Tags          []string        `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	FestivalTags  []string        `json:"festivalTags" validate:"omitempty,max=20,dive,max=40"`
	RecipientTags []string        `json:"recipientTags" validate:"omitempty,max=20,dive,max=40"`
	Embedding     []float32       `json:"embedding"`
}

// UpdateArtworkInput carries partial edits; nil fields are left untouched.
type UpdateArtworkInput struct {
	Title         *string          `json:"title" validate:"omitempty,max=140"`
	Description   *string          `json:"description" validate:"omitempty,max=5000"`
	Price         *decimal.Decimal `json:"price"`
	Currency      *string          `json:"currency" validate:"omitempty,len=3"`
	Quantity      *int             `json:"quantity" validate:"omitempty,min=0"`
	Status        *string          `json:"status" validate:"omitempty,oneof=draft published removed"`
	Tags          *[]string        `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	FestivalTags  *[]string        `json:"festivalTags" validate:"omitempty,max=20,dive,max=40"`
	RecipientTags *[]string        `json:"recipientTags" validate:"omitempty,max=20,dive,max=40"`
	Embedding     *[]float32       `json:"embedding"`
}

func (in UpdateArtworkInput) hasFieldChanges() bool {
	return in.Title != nil || in.Description != nil || in.Price != nil || in.Currency != nil ||
		in.Quantity != nil || in.Tags != nil || in.FestivalTags != nil || in.RecipientTags != nil ||
		in.Embedding != nil
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	SellerID  *uuid.UUID
	Statuses  []enums.ArtworkStatus
	Tag       string
	Festival  string
	Recipient string
	MinPrice  *int64
	MaxPrice  *int64
	Query     string
}

// ArtworkDTO is the public representation of a listing.
type ArtworkDTO struct {
	ID            uuid.UUID           `json:"id"`
	SellerID      uuid.UUID           `json:"sellerId"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Media         types.MediaList     `json:"media"`
	Price         int64               `json:"price"`
	PriceDisplay  string              `json:"priceDisplay"`
	Currency      enums.Currency      `json:"currency"`
	Quantity      int                 `json:"quantity"`
	Status        enums.ArtworkStatus `json:"status"`
	LikeCount     int                 `json:"likeCount"`
	Tags          []string            `json:"tags"`
	FestivalTags  []string            `json:"festivalTags"`
	RecipientTags []string            `json:"recipientTags"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ArtworkPage is a cursor-paginated listing.
type ArtworkPage struct {
	Items      []ArtworkDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func FromModel(a models.Artwork) ArtworkDTO {
	return ArtworkDTO{
		ID:            a.ID,
		SellerID:      a.SellerID,
		Title:         a.Title,
		Description:   a.Description,
		Media:         nonNilMedia(a.Media),
		Price:         a.Price,
		PriceDisplay:  money.FromMinor(a.Price).StringFixed(2),
		Currency:      a.Currency,
		Quantity:      a.Quantity,
		Status:        a.Status,
		LikeCount:     a.LikeCount,
		Tags:          nonNilStrings(a.Tags),
		FestivalTags:  nonNilStrings(a.FestivalTags),
		RecipientTags: nonNilStrings(a.RecipientTags),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func nonNilMedia(m types.MediaList) types.MediaList {
	if m == nil {
		return types.MediaList{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

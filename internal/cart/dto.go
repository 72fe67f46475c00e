package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/enums"
)

type AddItemInput struct {
	ArtworkID uuid.UUID `json:"artworkId" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1,max=1000"`
}

type UpdateQtyInput struct {
	Qty int `json:"qty" validate:"required,min=1,max=1000"`
}

// LineDTO expands a cart item with the artwork fields a checkout page needs.
type LineDTO struct {
	ArtworkID uuid.UUID           `json:"artworkId"`
	SellerID  uuid.UUID           `json:"sellerId"`
	Title     string              `json:"title"`
	ImageURL  string              `json:"imageUrl,omitempty"`
	UnitPrice int64               `json:"unitPrice"`
	Currency  enums.Currency      `json:"currency"`
	Status    enums.ArtworkStatus `json:"status"`
	Available int                 `json:"available"`
	Qty       int                 `json:"qty"`
	LineTotal int64               `json:"lineTotal"`
}

type CartDTO struct {
	ID        *uuid.UUID     `json:"id,omitempty"`
	Items     []LineDTO      `json:"items"`
	ItemCount int            `json:"itemCount"`
	Subtotal  int64          `json:"subtotal"`
	Currency  enums.Currency `json:"currency,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

func emptyCart() CartDTO {
	return CartDTO{Items: []LineDTO{}}
}

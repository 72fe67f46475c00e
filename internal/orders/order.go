package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/money"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

// LineRequest is a requested (artwork, qty) pair before pricing.
type LineRequest struct {
	ArtworkID uuid.UUID `json:"artworkId" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

// MergeLines folds duplicate artwork ids together, keeping first-seen order.
func MergeLines(lines []LineRequest) []LineRequest {
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]LineRequest, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ArtworkID]; ok {
			out[i].Qty += line.Qty
			continue
		}
		index[line.ArtworkID] = len(out)
		out = append(out, line)
	}
	return out
}

// NewOrder prices lines against the supplied artworks and returns an order
// in status created. Every artwork must be published, belong to someone
// other than the buyer, hold enough stock and share one currency.
func NewOrder(buyerID uuid.UUID, lines []LineRequest, artworks map[uuid.UUID]models.Artwork, address types.ShippingAddress) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAddress, err, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": address.MissingFields()})
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}

	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		ShippingAddress: address.Normalize(),
		Status:          enums.OrderStatusCreated,
	}
	for _, line := range MergeLines(lines) {
		if line.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1").
				WithDetails(map[string]any{"artworkId": line.ArtworkID})
		}
		artwork, ok := artworks[line.ArtworkID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found").
				WithDetails(map[string]any{"artworkId": line.ArtworkID})
		}
		if artwork.Status != enums.ArtworkStatusPublished {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork is not available").
				WithDetails(map[string]any{"artworkId": artwork.ID, "status": artwork.Status})
		}
		if artwork.SellerID == buyerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot order your own artwork").
				WithDetails(map[string]any{"artworkId": artwork.ID})
		}
		if line.Qty > artwork.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{"artworkId": artwork.ID, "available": artwork.Quantity, "requested": line.Qty})
		}
		if order.Currency == "" {
			order.Currency = artwork.Currency
		} else if order.Currency != artwork.Currency {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "all items must share one currency")
		}

		lineTotal, err := money.Multiply(artwork.Price, line.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "line total out of range")
		}
		order.Total += lineTotal
		if order.Total < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total out of range")
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ArtworkID: artwork.ID,
			SellerID:  artwork.SellerID,
			Title:     artwork.Title,
			UnitPrice: artwork.Price,
			Qty:       line.Qty,
			Currency:  artwork.Currency,
			LineTotal: lineTotal,
		})
	}
	if order.Total <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("order total must be positive, got %d", order.Total))
	}
	return order, nil
}

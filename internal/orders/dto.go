package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

// Source names where an order's lines come from.
type Source string

const (
	SourceCart   Source = "cart"
	SourceDirect Source = "direct"
)

// CreateOrderInput carries either an inline address or an address book id.
type CreateOrderInput struct {
	Source          Source                 `json:"-"`
	Items           []LineRequest          `json:"items,omitempty" validate:"omitempty,dive"`
	ShippingAddress *types.ShippingAddress `json:"shippingAddress,omitempty"`
	AddressID       *uuid.UUID             `json:"addressId,omitempty"`
}

type VerifyPaymentInput struct {
	OrderID   uuid.UUID `json:"orderId" validate:"required"`
	PaymentID string    `json:"paymentId" validate:"required,max=128"`
	Signature string    `json:"signature" validate:"required,max=256"`
}

type UpdateStatusInput struct {
	ArtworkID      uuid.UUID `json:"artworkId" validate:"required"`
	Status         string    `json:"status" validate:"required"`
	TrackingNumber *string   `json:"trackingNumber,omitempty" validate:"omitempty,max=64"`
}

type OrderItemDTO struct {
	ArtworkID uuid.UUID      `json:"artworkId"`
	SellerID  uuid.UUID      `json:"sellerId"`
	Title     string         `json:"title"`
	UnitPrice int64          `json:"unitPrice"`
	Qty       int            `json:"qty"`
	Currency  enums.Currency `json:"currency"`
	LineTotal int64          `json:"lineTotal"`
}

type OrderDTO struct {
	ID               uuid.UUID             `json:"id"`
	BuyerID          uuid.UUID             `json:"buyerId"`
	Items            []OrderItemDTO        `json:"items"`
	Total            int64                 `json:"total"`
	SellerSubtotal   *int64                `json:"sellerSubtotal,omitempty"`
	Currency         enums.Currency        `json:"currency"`
	ShippingAddress  types.ShippingAddress `json:"shippingAddress"`
	Status           enums.OrderStatus     `json:"status"`
	GatewayOrderID   string                `json:"gatewayOrderId"`
	GatewayPaymentID *string               `json:"gatewayPaymentId,omitempty"`
	TrackingNumber   *string               `json:"trackingNumber,omitempty"`
	PaidAt           *time.Time            `json:"paidAt,omitempty"`
	ShippedAt        *time.Time            `json:"shippedAt,omitempty"`
	DeliveredAt      *time.Time            `json:"deliveredAt,omitempty"`
	CancelledAt      *time.Time            `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// CheckoutDTO is what the client needs to open the gateway's payment sheet.
type CheckoutDTO struct {
	Order          OrderDTO       `json:"order"`
	GatewayKeyID   string         `json:"gatewayKeyId"`
	GatewayOrderID string         `json:"gatewayOrderId"`
	Amount         int64          `json:"amount"`
	Currency       enums.Currency `json:"currency"`
}

// FromModel renders the buyer's full view.
func FromModel(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               order.ID,
		BuyerID:          order.BuyerID,
		Items:            make([]OrderItemDTO, 0, len(order.Items)),
		Total:            order.Total,
		Currency:         order.Currency,
		ShippingAddress:  order.ShippingAddress,
		Status:           order.Status,
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		TrackingNumber:   order.TrackingNumber,
		PaidAt:           order.PaidAt,
		ShippedAt:        order.ShippedAt,
		DeliveredAt:      order.DeliveredAt,
		CancelledAt:      order.CancelledAt,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, itemFromModel(item))
	}
	return dto
}

// SellerView keeps only the seller's lines and adds their subtotal.
func SellerView(order models.Order, sellerID uuid.UUID) OrderDTO {
	dto := FromModel(order)
	dto.Items = dto.Items[:0]
	var subtotal int64
	for _, item := range order.Items {
		if item.SellerID != sellerID {
			continue
		}
		dto.Items = append(dto.Items, itemFromModel(item))
		subtotal += item.LineTotal
	}
	dto.SellerSubtotal = &subtotal
	return dto
}

func itemFromModel(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ArtworkID: item.ArtworkID,
		SellerID:  item.SellerID,
		Title:     item.Title,
		UnitPrice: item.UnitPrice,
		Qty:       item.Qty,
		Currency:  item.Currency,
		LineTotal: item.LineTotal,
	}
}

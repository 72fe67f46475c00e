package payloads

import (
	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/enums"
)

type OrderLine struct {
	ArtworkID uuid.UUID `json:"artwork_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Qty       int       `json:"qty"`
	UnitPrice int64     `json:"unit_price"`
}

// OrderCreatedEvent is emitted once the gateway order exists and rows are persisted.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID      `json:"order_id"`
	BuyerID        uuid.UUID      `json:"buyer_id"`
	GatewayOrderID string         `json:"gateway_order_id"`
	Total          int64          `json:"total"`
	Currency       enums.Currency `json:"currency"`
	Items          []OrderLine    `json:"items"`
}

// OrderPaidEvent carries the verified payment reference.
type OrderPaidEvent struct {
	OrderID          uuid.UUID      `json:"order_id"`
	BuyerID          uuid.UUID      `json:"buyer_id"`
	GatewayPaymentID string         `json:"gateway_payment_id"`
	Total            int64          `json:"total"`
	Currency         enums.Currency `json:"currency"`
	SellerIDs        []uuid.UUID    `json:"seller_ids"`
}

type OrderPaymentFailedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	BuyerID          uuid.UUID `json:"buyer_id"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	Reason           string    `json:"reason"`
}

type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	BuyerID        uuid.UUID         `json:"buyer_id"`
	ActorID        uuid.UUID         `json:"actor_id"`
	From           enums.OrderStatus `json:"from"`
	To             enums.OrderStatus `json:"to"`
	TrackingNumber *string           `json:"tracking_number,omitempty"`
}

type OrderExpiredEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	PrevStatus enums.OrderStatus `json:"prev_status"`
}

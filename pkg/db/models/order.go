package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/types"
	"gorm.io/gorm"
)

// Order is a buyer checkout. Orders are never deleted.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID          uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null;index:orders_buyer_id_idx"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID;references:ID"`
	Total            int64                 `gorm:"column:total;not null"`
	Currency         enums.Currency        `gorm:"column:currency;not null"`
	ShippingAddress  types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	GatewayOrderID   string                `gorm:"column:gateway_order_id;not null;uniqueIndex:orders_gateway_order_id_key"`
	GatewayPaymentID *string               `gorm:"column:gateway_payment_id"`
	GatewaySignature *string               `gorm:"column:gateway_signature"`
	Status           enums.OrderStatus     `gorm:"column:status;not null"`
	TrackingNumber   *string               `gorm:"column:tracking_number"`
	PaidAt           *time.Time            `gorm:"column:paid_at"`
	ShippedAt        *time.Time            `gorm:"column:shipped_at"`
	DeliveredAt      *time.Time            `gorm:"column:delivered_at"`
	CancelledAt      *time.Time            `gorm:"column:cancelled_at"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots the seller, title and price of an artwork at checkout.
type OrderItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ArtworkID uuid.UUID      `gorm:"column:artwork_id;type:uuid;not null"`
	SellerID  uuid.UUID      `gorm:"column:seller_id;type:uuid;not null;index:order_items_seller_id_idx"`
	Title     string         `gorm:"column:title;not null"`
	UnitPrice int64          `gorm:"column:unit_price;not null"`
	Qty       int            `gorm:"column:qty;not null"`
	Currency  enums.Currency `gorm:"column:currency;not null"`
	LineTotal int64          `gorm:"column:line_total;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

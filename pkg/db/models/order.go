package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/types"
)

// Order is a customer purchase. Line items snapshot name/price/qty at creation
// so historical orders stay stable when the product later changes or disappears.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Currency        string              `gorm:"column:currency;not null;default:'INR'"`
	AmountPaise     int64               `gorm:"column:amount_paise;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	// Gateway correlation ids kept for audit after verification.
	GatewayOrderID   *string `gorm:"column:gateway_order_id"`
	GatewayPaymentID *string `gorm:"column:gateway_payment_id"`
	GatewaySignature *string `gorm:"column:gateway_signature"`

	CancelledAt *time.Time           `gorm:"column:cancelled_at"`
	Items       []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Tracking    []OrderTrackingEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is the denormalized snapshot of one purchased product line.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID      *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	UnitPricePaise int64      `gorm:"column:unit_price_paise;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	TotalPaise     int64      `gorm:"column:total_paise;not null"`
	FarmerID       uuid.UUID  `gorm:"column:farmer_id;type:uuid;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderTrackingEvent is one append-only entry in an order's tracking history.
type OrderTrackingEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Message   string            `gorm:"column:message;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (e *OrderTrackingEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

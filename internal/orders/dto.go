package orders

import (
	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/types"
)

// PlaceOrderItemInput is one requested product line.
type PlaceOrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput captures everything needed to place an order.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	Items           []PlaceOrderItemInput
	ShippingAddress *types.Address
}

// GetOrderInput scopes a single-order read to the requesting actor.
type GetOrderInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// CancelOrderInput captures a customer-initiated cancellation.
type CancelOrderInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// UpdateStatusInput advances an order along the fulfillment path.
type UpdateStatusInput struct {
	OrderID   uuid.UUID
	Status    enums.OrderStatus
	Message   string
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// DeleteOrderInput captures an admin hard delete.
type DeleteOrderInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// SaleNotice tells a farmer one of their products sold.
type SaleNotice struct {
	FarmerID    uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	AmountPaise int64
	Kind        enums.ProductKind
}

// LowStockNotice warns a farmer their listing is nearly exhausted.
type LowStockNotice struct {
	FarmerID    uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Remaining   int
}

package payments

import (
	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// CreateIntentInput asks the gateway for an order intent to pay against.
type CreateIntentInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// Intent is what the checkout client needs to open the gateway widget.
type Intent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	AmountPaise    int64  `json:"amount_paise"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

// VerifyInput carries the gateway callback fields the client hands back
// after a payment attempt.
type VerifyInput struct {
	OrderID          uuid.UUID
	ActorID          uuid.UUID
	ActorRole        enums.UserRole
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// MarkFailedInput records a payment attempt the client reports as failed.
type MarkFailedInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// PaymentNotice reports one paid order line for notification fan-out. Each
// line goes to the farmer who owns it, with the line's own amount rather
// than the order total.
type PaymentNotice struct {
	FarmerID    uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	AmountPaise int64
}

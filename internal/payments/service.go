package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/gateway"
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
)

const (
	verifyResultSuccess = "success"
	verifyResultFailure = "failure"
)

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateTrackingEvent(ctx context.Context, event *models.OrderTrackingEvent) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Notifier receives captured payments for best-effort fan-out.
type Notifier interface {
	PaymentReceived(ctx context.Context, notice PaymentNotice)
}

// Service covers the payment leg of checkout: intent creation, signature
// verification, and failure recording.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error)
	Verify(ctx context.Context, input VerifyInput) (*models.Order, error)
	MarkFailed(ctx context.Context, input MarkFailedInput) error
}

type service struct {
	orders   orderRepository
	gateway  gatewayClient
	notifier Notifier
	metrics  *metrics.MarketplaceMetrics
}

// NewService builds a payments service.
func NewService(orders orderRepository, gw gatewayClient, notifier Notifier, mm *metrics.MarketplaceMetrics) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	return &service{orders: orders, gateway: gw, notifier: notifier, metrics: mm}, nil
}

func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error) {
	order, err := s.loadOwnedOrder(ctx, input.OrderID, input.ActorID, input.ActorRole)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
	}

	// A retried checkout reuses the stored intent instead of minting another.
	if order.GatewayOrderID != nil && *order.GatewayOrderID != "" {
		return &Intent{
			GatewayOrderID: *order.GatewayOrderID,
			AmountPaise:    order.AmountPaise,
			Currency:       order.Currency,
			KeyID:          s.gateway.KeyID(),
		}, nil
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		AmountPaise: order.AmountPaise,
		Currency:    order.Currency,
		Receipt:     order.ID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}

	if err := s.orders.Update(ctx, order.ID, map[string]any{"gateway_order_id": gwOrder.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway order id")
	}

	return &Intent{
		GatewayOrderID: gwOrder.ID,
		AmountPaise:    order.AmountPaise,
		Currency:       order.Currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput) (*models.Order, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id, and signature are required")
	}

	order, err := s.loadOwnedOrder(ctx, input.OrderID, input.ActorID, input.ActorRole)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already verified")
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id does not match this order")
	}

	// a mismatched signature rejects the attempt but leaves the order as it
	// was; only the client's explicit failure report flips payment_status
	if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.metrics.IncPaymentVerified(verifyResultFailure)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid payment signature")
	}

	updates := map[string]any{
		"payment_status":     enums.PaymentStatusPaid,
		"status":             enums.OrderStatusProcessing,
		"gateway_payment_id": input.GatewayPaymentID,
		"gateway_signature":  input.Signature,
	}
	if err := s.orders.Update(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}
	if err := s.orders.CreateTrackingEvent(ctx, &models.OrderTrackingEvent{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
		Message: "payment received",
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking event")
	}

	order.PaymentStatus = enums.PaymentStatusPaid
	order.Status = enums.OrderStatusProcessing
	order.GatewayPaymentID = &input.GatewayPaymentID
	order.GatewaySignature = &input.Signature
	now := time.Now().UTC()
	order.UpdatedAt = now

	s.metrics.IncPaymentVerified(verifyResultSuccess)
	if s.notifier != nil {
		for _, item := range order.Items {
			notice := PaymentNotice{
				FarmerID:    item.FarmerID,
				OrderID:     order.ID,
				ProductName: item.Name,
				Qty:         item.Qty,
				AmountPaise: item.UnitPricePaise * int64(item.Qty),
			}
			if item.ProductID != nil {
				notice.ProductID = *item.ProductID
			}
			s.notifier.PaymentReceived(ctx, notice)
		}
	}
	return order, nil
}

func (s *service) MarkFailed(ctx context.Context, input MarkFailedInput) error {
	order, err := s.loadOwnedOrder(ctx, input.OrderID, input.ActorID, input.ActorRole)
	if err != nil {
		return err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeConflict, "payment already verified")
	}
	return s.recordFailure(ctx, order)
}

func (s *service) recordFailure(ctx context.Context, order *models.Order) error {
	if err := s.orders.Update(ctx, order.ID, map[string]any{
		"payment_status": enums.PaymentStatusFailed,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
	}
	if err := s.orders.CreateTrackingEvent(ctx, &models.OrderTrackingEvent{
		OrderID: order.ID,
		Status:  order.Status,
		Message: "payment failed",
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking event")
	}
	order.PaymentStatus = enums.PaymentStatusFailed
	return nil
}

func (s *service) loadOwnedOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if role != enums.UserRoleAdmin && order.CustomerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/internal/hubs"
	"github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/internal/payments"
	"github.com/agrimandi/agrimandi-backend/internal/products"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/mail"
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
	"github.com/agrimandi/agrimandi-backend/pkg/types"
)

const (
	channelInApp = "in_app"
	channelEmail = "email"

	deliveryOK     = "success"
	deliveryFailed = "failure"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Dispatcher fans each domain event out to an in-app notification row and,
// where a template exists, an outbound email. Informational deliveries are
// logged and counted, never returned; ArrivalConfirmed reports its email
// outcome so callers can record whether the customer was actually told.
type Dispatcher struct {
	repo    Repository
	users   userFinder
	mailer  mail.Sender
	logg    *logger.Logger
	metrics *metrics.MarketplaceMetrics
}

// NewDispatcher builds the notification fan-out used by the domain services.
func NewDispatcher(repo Repository, users userFinder, mailer mail.Sender, logg *logger.Logger, mm *metrics.MarketplaceMetrics) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{repo: repo, users: users, mailer: mailer, logg: logg, metrics: mm}, nil
}

// ProductSold tells the farmer one of their listings sold.
func (d *Dispatcher) ProductSold(ctx context.Context, notice orders.SaleNotice) {
	d.deliverInApp(ctx, &models.Notification{
		RecipientID: notice.FarmerID,
		Type:        enums.NotificationTypeProductSold,
		Title:       "Product sold",
		Message:     fmt.Sprintf("%d x %s sold", notice.Qty, notice.ProductName),
		Priority:    enums.NotificationPriorityNormal,
		Icon:        "sale",
		Data: types.JSONMap{
			"order_id":     notice.OrderID.String(),
			"product_id":   notice.ProductID.String(),
			"qty":          notice.Qty,
			"amount_paise": notice.AmountPaise,
		},
	})
}

// LowStock warns the farmer a listing is nearly exhausted.
func (d *Dispatcher) LowStock(ctx context.Context, notice orders.LowStockNotice) {
	d.deliverInApp(ctx, &models.Notification{
		RecipientID: notice.FarmerID,
		Type:        enums.NotificationTypeLowStock,
		Title:       "Low stock",
		Message:     fmt.Sprintf("Only %d units of %s left", notice.Remaining, notice.ProductName),
		Priority:    enums.NotificationPriorityHigh,
		Icon:        "stock",
		Data: types.JSONMap{
			"product_id": notice.ProductID.String(),
			"remaining":  notice.Remaining,
		},
	})
}

// BulkReviewed tells the farmer the outcome of a bulk listing review.
func (d *Dispatcher) BulkReviewed(ctx context.Context, notice products.ReviewNotice) {
	notification := &models.Notification{
		RecipientID: notice.FarmerID,
		Priority:    enums.NotificationPriorityNormal,
		Icon:        "review",
		Data: types.JSONMap{
			"product_id": notice.ProductID.String(),
		},
	}
	if notice.Accepted {
		notification.Type = enums.NotificationTypeBulkAccepted
		notification.Title = "Bulk listing accepted"
		notification.Message = fmt.Sprintf("%s is now live", notice.ProductName)
		if notice.AdvanceRequired {
			notification.Message = fmt.Sprintf("%s is now live, advance payment required", notice.ProductName)
			notification.Data["advance_amount_paise"] = notice.AdvanceAmountPaise
		}
	} else {
		notification.Type = enums.NotificationTypeBulkRejected
		notification.Title = "Bulk listing rejected"
		notification.Message = fmt.Sprintf("%s was rejected: %s", notice.ProductName, notice.Reason)
	}
	d.deliverInApp(ctx, notification)
}

// PaymentReceived tells the farmer one of their order lines was paid for.
func (d *Dispatcher) PaymentReceived(ctx context.Context, notice payments.PaymentNotice) {
	d.deliverInApp(ctx, &models.Notification{
		RecipientID: notice.FarmerID,
		Type:        enums.NotificationTypePaymentReceived,
		Title:       "Payment received",
		Message:     fmt.Sprintf("Payment received for %d x %s", notice.Qty, notice.ProductName),
		Priority:    enums.NotificationPriorityNormal,
		Icon:        "payment",
		Data: types.JSONMap{
			"order_id":     notice.OrderID.String(),
			"product_id":   notice.ProductID.String(),
			"qty":          notice.Qty,
			"amount_paise": notice.AmountPaise,
		},
	})
}

// ArrivalConfirmed tells the customer their produce reached the hub. The
// in-app row stays best effort; the returned error reports whether the
// arrival email went out.
func (d *Dispatcher) ArrivalConfirmed(ctx context.Context, notice hubs.ArrivalNotice) error {
	d.deliverInApp(ctx, &models.Notification{
		RecipientID: notice.CustomerID,
		Type:        enums.NotificationTypeHubArrival,
		Title:       "Order at hub",
		Message:     fmt.Sprintf("%s has arrived at %s", notice.ProductName, notice.NearestHub),
		Priority:    enums.NotificationPriorityHigh,
		Icon:        "hub",
		Data: types.JSONMap{
			"order_id":    notice.OrderID.String(),
			"activity_id": notice.ActivityID.String(),
		},
	})
	return d.emailCustomer(ctx, notice)
}

func (d *Dispatcher) emailCustomer(ctx context.Context, notice hubs.ArrivalNotice) error {
	customer, err := d.users.FindByID(ctx, notice.CustomerID)
	if err != nil {
		d.metrics.IncNotification(channelEmail, deliveryFailed)
		return fmt.Errorf("load customer: %w", err)
	}
	subject, body := mail.OrderDeliveredBody(customer.Name, notice.ProductName)
	if err := d.mailer.Send(ctx, customer.Email, subject, body); err != nil {
		d.metrics.IncNotification(channelEmail, deliveryFailed)
		return fmt.Errorf("send arrival email: %w", err)
	}
	d.metrics.IncNotification(channelEmail, deliveryOK)
	return nil
}

func (d *Dispatcher) deliverInApp(ctx context.Context, notification *models.Notification) {
	if err := d.createInApp(ctx, notification); err != nil {
		d.logg.Error(ctx, "deliver notification", err)
	}
}

func (d *Dispatcher) createInApp(ctx context.Context, notification *models.Notification) error {
	if err := d.repo.Create(ctx, notification); err != nil {
		d.metrics.IncNotification(channelInApp, deliveryFailed)
		return fmt.Errorf("store notification: %w", err)
	}
	d.metrics.IncNotification(channelInApp, deliveryOK)
	return nil
}

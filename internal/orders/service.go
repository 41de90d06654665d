package orders

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
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductCatalog loads listing rows inside the placement transaction.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error)
}

// SaleRecorder stores one hub custody row per sold line.
type SaleRecorder interface {
	RecordSales(ctx context.Context, tx *gorm.DB, activities []models.HubActivity) error
}

// StockReserver adjusts product stock inside the caller's transaction.
type StockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []StockReservationRequest) ([]StockReservationResult, error)
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Notifier receives best-effort notices after a placement commits.
type Notifier interface {
	ProductSold(ctx context.Context, notice SaleNotice)
	LowStock(ctx context.Context, notice LowStockNotice)
}

// LowStockBand bounds the remaining quantity that triggers a low-stock notice.
type LowStockBand struct {
	Floor   int
	Ceiling int
}

// Service defines the order lifecycle operations.
type Service interface {
	Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	Get(ctx context.Context, input GetOrderInput) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Delete(ctx context.Context, input DeleteOrderInput) error
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  ProductCatalog
	sales    SaleRecorder
	reserver StockReserver
	notifier Notifier
	metrics  *metrics.MarketplaceMetrics
	lowStock LowStockBand
}

// NewService builds an order service with the required dependencies. A nil
// reserver falls back to the SQL implementation.
func NewService(repo Repository, tx txRunner, catalog ProductCatalog, sales SaleRecorder, reserver StockReserver, notifier Notifier, mm *metrics.MarketplaceMetrics, lowStock LowStockBand) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale recorder required")
	}
	if reserver == nil {
		reserver = SQLStockReserver{}
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalog,
		sales:    sales,
		reserver: reserver,
		notifier: notifier,
		metrics:  mm,
		lowStock: lowStock,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.ShippingAddress != nil {
		if err := input.ShippingAddress.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
		}
	}

	seen := make(map[uuid.UUID]bool, len(input.Items))
	requests := make([]StockReservationRequest, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive")
		}
		if seen[item.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order")
		}
		seen[item.ProductID] = true
		requests = append(requests, StockReservationRequest{ProductID: item.ProductID, Qty: item.Qty})
	}

	var (
		placed     *models.Order
		saleNotes  []SaleNotice
		stockNotes []LowStockNotice
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(requests))
		for _, req := range requests {
			ids = append(ids, req.ProductID)
		}
		products, err := s.catalog.FindByIDs(ctx, tx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, req := range requests {
			product, ok := byID[req.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			if product.ReviewStatus != enums.ReviewStatusAccepted {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("product %q is not available for purchase", product.Name))
			}
		}

		results, err := s.reserver.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}
		remaining := make(map[uuid.UUID]int, len(results))
		for _, result := range results {
			if !result.Reserved {
				product := byID[result.ProductID]
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %q", product.Name)).
					WithDetails(map[string]any{"product_id": result.ProductID})
			}
			remaining[result.ProductID] = result.RemainingQty
		}

		var total int64
		items := make([]models.OrderItem, 0, len(requests))
		activities := make([]models.HubActivity, 0, len(requests))
		for _, req := range requests {
			product := byID[req.ProductID]
			lineTotal := product.PricePaise * int64(req.Qty)
			total += lineTotal

			productID := product.ID
			items = append(items, models.OrderItem{
				ProductID:      &productID,
				Name:           product.Name,
				UnitPricePaise: product.PricePaise,
				Qty:            req.Qty,
				TotalPaise:     lineTotal,
				FarmerID:       product.FarmerID,
			})
			activities = append(activities, models.HubActivity{
				Type:        enums.HubActivityTypeSold,
				State:       product.State,
				District:    product.District,
				NearestHub:  product.NearestHub,
				ProductID:   product.ID,
				ProductName: product.Name,
				FarmerID:    product.FarmerID,
				CustomerID:  input.CustomerID,
				Quantity:    req.Qty,
				AmountPaise: lineTotal,
			})
		}

		order := &models.Order{
			CustomerID:      input.CustomerID,
			Currency:        "INR",
			AmountPaise:     total,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			ShippingAddress: input.ShippingAddress,
		}
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		for i := range activities {
			activities[i].OrderID = order.ID
		}
		if err := s.sales.RecordSales(ctx, tx, activities); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record hub activity")
		}
		if err := repo.CreateTrackingEvent(ctx, &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusPending,
			Message: "order placed",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking event")
		}

		order.Items = items
		placed = order

		for _, req := range requests {
			product := byID[req.ProductID]
			saleNotes = append(saleNotes, SaleNotice{
				FarmerID:    product.FarmerID,
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Qty:         req.Qty,
				AmountPaise: product.PricePaise * int64(req.Qty),
				Kind:        product.Kind,
			})
			left := remaining[req.ProductID]
			if left >= s.lowStock.Floor && left <= s.lowStock.Ceiling {
				stockNotes = append(stockNotes, LowStockNotice{
					FarmerID:    product.FarmerID,
					ProductID:   product.ID,
					ProductName: product.Name,
					Remaining:   left,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, notice := range saleNotes {
		s.metrics.IncOrderPlaced(notice.Kind.String())
		if s.notifier != nil {
			s.notifier.ProductSold(ctx, notice)
		}
	}
	if s.notifier != nil {
		for _, notice := range stockNotes {
			s.notifier.LowStock(ctx, notice)
		}
	}
	return placed, nil
}

func (s *service) Get(ctx context.Context, input GetOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if input.ActorRole != enums.UserRoleAdmin && order.CustomerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, next, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	list := &OrderList{Orders: orders}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if input.ActorRole != enums.UserRoleAdmin && order.CustomerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if !order.Status.CanCancel() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order in status %q cannot be cancelled", order.Status))
		}

		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := s.reserver.Restore(ctx, tx, *item.ProductID, item.Qty); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if err := repo.CreateTrackingEvent(ctx, &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Message: "order cancelled",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking event")
		}

		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCancelled()
	return cancelled, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorRole != enums.UserRoleAdmin && input.ActorRole != enums.UserRoleHubManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only hub managers and admins update order status")
	}
	if !input.Status.IsValid() || input.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.CanProgressTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %q to %q", order.Status, input.Status))
		}

		if err := repo.Update(ctx, order.ID, map[string]any{"status": input.Status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		message := input.Message
		if message == "" {
			message = fmt.Sprintf("order %s", input.Status)
		}
		if err := repo.CreateTrackingEvent(ctx, &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  input.Status,
			Message: message,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking event")
		}

		order.Status = input.Status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, input DeleteOrderInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins delete orders")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders cannot be deleted")
		}
		if order.Status == enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be deleted")
		}

		if order.Status.CanCancel() {
			for _, item := range order.Items {
				if item.ProductID == nil {
					continue
				}
				if err := s.reserver.Restore(ctx, tx, *item.ProductID, item.Qty); err != nil {
					return err
				}
			}
		}

		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

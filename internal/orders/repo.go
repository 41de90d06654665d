package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "Tracking").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateTrackingEvent(ctx context.Context, event *models.OrderTrackingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID)
	return r.list(ctx, query, params)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OrderStatus, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("status = ?", status)
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Preload("Items").Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		next := orders[normalized]
		orders = orders[:normalized]
		return orders, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return orders, nil, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListStaleUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND payment_status = ? AND created_at < ?",
			enums.OrderStatusPending, enums.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelIfUnpaid flips the order to cancelled only while it is still pending
// and unpaid. The guard keeps the sweep from clobbering a payment that
// verified between the list and the update.
func (r *repository) CancelIfUnpaid(ctx context.Context, id uuid.UUID, cancelledAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			id, enums.OrderStatusPending, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": cancelledAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Select("Items", "Tracking").
		Delete(&models.Order{ID: id}).Error
}

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

// Repository exposes persistence helpers for orders and their child rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateTrackingEvent(ctx context.Context, event *models.OrderTrackingEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListStaleUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	CancelIfUnpaid(ctx context.Context, id uuid.UUID, cancelledAt time.Time) (bool, error)
}

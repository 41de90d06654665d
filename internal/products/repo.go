package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filters.FarmerID)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.ReviewStatus != nil {
		query = query.Where("review_status = ?", *filters.ReviewStatus)
	}
	if filters.State != "" {
		query = query.Where("state = ?", filters.State)
	}
	if filters.District != "" {
		query = query.Where("district = ?", filters.District)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > normalized {
		next := products[normalized]
		products = products[:normalized]
		return products, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return products, nil, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateReviewIfPending applies review updates only while the listing is still
// pending, so concurrent reviewers cannot both win.
func (r *repository) UpdateReviewIfPending(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND review_status = ?", id, enums.ReviewStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *repository) CountActiveOrderLines(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ?", productID).
		Where("orders.status IN ?", []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusProcessing,
			enums.OrderStatusShipped,
		}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

// ListFilters narrows catalog queries.
type ListFilters struct {
	FarmerID     *uuid.UUID
	Kind         *enums.ProductKind
	ReviewStatus *enums.ReviewStatus
	State        string
	District     string
}

// Repository exposes persistence helpers for product listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, *pagination.Cursor, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateReviewIfPending(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveOrderLines(ctx context.Context, productID uuid.UUID) (int64, error)
}

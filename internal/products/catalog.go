package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
)

// Catalog adapts the products repository to the read surface order placement
// needs inside its transaction.
type Catalog struct {
	repo Repository
}

// NewCatalog wraps a products repository for transactional reads.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) FindByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error) {
	return c.repo.WithTx(tx).FindByIDs(ctx, ids)
}

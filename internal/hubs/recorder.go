package hubs

import (
	"context"

	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
)

// Recorder stores custody rows for sold lines inside the order placement
// transaction.
type Recorder struct {
	repo Repository
}

// NewRecorder wraps the repository for use by the orders service.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) RecordSales(ctx context.Context, tx *gorm.DB, activities []models.HubActivity) error {
	return r.repo.WithTx(tx).CreateActivities(ctx, activities)
}

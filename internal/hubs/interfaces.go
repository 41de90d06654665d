package hubs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

// ActivityFilters narrows custody record queries.
type ActivityFilters struct {
	State      string
	District   string
	NearestHub string
	Confirmed  *bool
	FarmerID   *uuid.UUID
	CustomerID *uuid.UUID
}

// Repository exposes persistence helpers for hubs and custody records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateHub(ctx context.Context, hub *models.Hub) (*models.Hub, error)
	FindHubByID(ctx context.Context, id uuid.UUID) (*models.Hub, error)
	ListHubs(ctx context.Context, params pagination.Params) ([]models.Hub, *pagination.Cursor, error)

	CreateActivities(ctx context.Context, activities []models.HubActivity) error
	FindActivityByID(ctx context.Context, id uuid.UUID) (*models.HubActivity, error)
	ListActivities(ctx context.Context, filters ActivityFilters, params pagination.Params) ([]models.HubActivity, *pagination.Cursor, error)
	SetArrivalOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	ConfirmArrival(ctx context.Context, id uuid.UUID, code string, confirmedBy uuid.UUID, at time.Time) (bool, error)
	MarkCustomerNotified(ctx context.Context, id uuid.UUID) error
}
